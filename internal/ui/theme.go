package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Palette used for dark terminals. Light terminals get the adaptive
// counterparts in adaptive().
const (
	ColorPrimary   = "#4F9DDE"
	ColorSecondary = "#8B5CF6"
	ColorSuccess   = "#10B981"
	ColorWarning   = "#F59E0B"
	ColorError     = "#EF4444"
	ColorText      = "#E5E7EB"
	ColorMuted     = "#9CA3AF"
	ColorBorder    = "#4B5563"
)

// ThemeConfig selects the look of the UI.
type ThemeConfig struct {
	NoColor bool
	Mode    string // "dark", "light" or "" for automatic
}

// Colors holds the hex colors in use.
type Colors struct {
	Primary   string
	Secondary string
	Success   string
	Warning   string
	Error     string
	Muted     string
}

// Theme renders styled text. With NoColor every style is plain.
type Theme struct {
	NoColor bool
	Mode    string
	Colors  Colors

	title   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	label   lipgloss.Style
}

// NewTheme builds a Theme from cfg.
func NewTheme(cfg ThemeConfig) *Theme {
	t := &Theme{
		NoColor: cfg.NoColor,
		Mode:    cfg.Mode,
		Colors: Colors{
			Primary:   ColorPrimary,
			Secondary: ColorSecondary,
			Success:   ColorSuccess,
			Warning:   ColorWarning,
			Error:     ColorError,
			Muted:     ColorMuted,
		},
	}
	if cfg.NoColor {
		plain := lipgloss.NewStyle()
		t.title, t.success, t.warning, t.failure, t.muted, t.label = plain, plain, plain, plain, plain, plain
		return t
	}
	t.title = lipgloss.NewStyle().Bold(true).Foreground(t.adaptive("#1D4ED8", ColorPrimary))
	t.success = lipgloss.NewStyle().Foreground(t.adaptive("#059669", ColorSuccess))
	t.warning = lipgloss.NewStyle().Foreground(t.adaptive("#B45309", ColorWarning))
	t.failure = lipgloss.NewStyle().Bold(true).Foreground(t.adaptive("#DC2626", ColorError))
	t.muted = lipgloss.NewStyle().Foreground(t.adaptive("#6B7280", ColorMuted))
	t.label = lipgloss.NewStyle().Foreground(t.adaptive("#5B21B6", ColorSecondary))
	return t
}

func (t *Theme) adaptive(light, dark string) lipgloss.TerminalColor {
	switch t.Mode {
	case "light":
		return lipgloss.Color(light)
	case "dark":
		return lipgloss.Color(dark)
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// render applies st unless colors are off. Plain text keeps its line
// widths; lipgloss pads every line of a block to the widest one.
func (t *Theme) render(st lipgloss.Style, s string) string {
	if t.NoColor {
		return s
	}
	return st.Render(s)
}

// Title styles a heading.
func (t *Theme) Title(s string) string { return t.render(t.title, s) }

// Success styles a confirmation.
func (t *Theme) Success(s string) string { return t.render(t.success, s) }

// Warning styles a warning popup text.
func (t *Theme) Warning(s string) string { return t.render(t.warning, s) }

// Error styles an error.
func (t *Theme) Error(s string) string { return t.render(t.failure, s) }

// Muted styles secondary text.
func (t *Theme) Muted(s string) string { return t.render(t.muted, s) }

// Label styles a field name.
func (t *Theme) Label(s string) string { return t.render(t.label, s) }

// HuhTheme maps the palette onto a huh form theme.
func (t *Theme) HuhTheme() *huh.Theme {
	if t.NoColor {
		return huh.ThemeBase()
	}
	h := huh.ThemeBase()

	primary := t.adaptive("#1D4ED8", ColorPrimary)
	secondary := t.adaptive("#5B21B6", ColorSecondary)
	green := t.adaptive("#059669", ColorSuccess)
	red := t.adaptive("#DC2626", ColorError)
	text := t.adaptive("#111827", ColorText)
	muted := t.adaptive("#6B7280", ColorMuted)
	border := t.adaptive("#D1D5DB", ColorBorder)

	h.Focused.Base = h.Focused.Base.BorderForeground(border)
	h.Focused.Card = h.Focused.Base
	h.Focused.Title = h.Focused.Title.Foreground(primary).Bold(true)
	h.Focused.Description = h.Focused.Description.Foreground(muted)
	h.Focused.ErrorIndicator = h.Focused.ErrorIndicator.Foreground(red)
	h.Focused.ErrorMessage = h.Focused.ErrorMessage.Foreground(red)
	h.Focused.SelectSelector = h.Focused.SelectSelector.Foreground(primary).SetString("▸ ")
	h.Focused.Option = h.Focused.Option.Foreground(text)
	h.Focused.MultiSelectSelector = h.Focused.MultiSelectSelector.Foreground(primary)
	h.Focused.SelectedOption = h.Focused.SelectedOption.Foreground(green)
	h.Focused.SelectedPrefix = lipgloss.NewStyle().Foreground(green).SetString("[x] ")
	h.Focused.UnselectedOption = h.Focused.UnselectedOption.Foreground(text)
	h.Focused.UnselectedPrefix = lipgloss.NewStyle().Foreground(muted).SetString("[ ] ")
	h.Focused.TextInput.Cursor = h.Focused.TextInput.Cursor.Foreground(primary)
	h.Focused.TextInput.Placeholder = h.Focused.TextInput.Placeholder.Foreground(muted)
	h.Focused.TextInput.Prompt = h.Focused.TextInput.Prompt.Foreground(secondary)
	h.Focused.FocusedButton = h.Focused.FocusedButton.Foreground(lipgloss.Color("#FFFFFF")).Background(primary)
	h.Focused.BlurredButton = h.Focused.BlurredButton.Foreground(text).Background(t.adaptive("#E5E7EB", "#374151"))

	h.Blurred = h.Focused
	h.Blurred.Base = h.Focused.Base.BorderStyle(lipgloss.HiddenBorder())
	h.Blurred.Card = h.Blurred.Base

	h.Group.Title = h.Focused.Title
	h.Group.Description = h.Focused.Description
	return h
}

// Printer writes styled status lines.
type Printer struct {
	theme *Theme
	out   io.Writer
}

// NewPrinter returns a Printer writing to out.
func NewPrinter(theme *Theme, out io.Writer) *Printer {
	return &Printer{theme: theme, out: out}
}

// Successf prints a confirmation line.
func (p *Printer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, p.theme.Success(fmt.Sprintf(format, args...)))
}

// Warnf prints a warning line.
func (p *Printer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, p.theme.Warning(fmt.Sprintf(format, args...)))
}

// Errorf prints an error line.
func (p *Printer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, p.theme.Error(fmt.Sprintf(format, args...)))
}

// Printf prints an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Field prints "label: value" with the label styled.
func (p *Printer) Field(label, value string) {
	_, _ = fmt.Fprintf(p.out, "%s %s\n", p.theme.Label(label+":"), value)
}

// Heading prints a title line.
func (p *Printer) Heading(s string) {
	_, _ = fmt.Fprintln(p.out, p.theme.Title(s))
}

// List prints items as an indented bullet list, or "(none)".
func (p *Printer) List(items []string) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(p.out, "  "+p.theme.Muted("(none)"))
		return
	}
	for _, it := range items {
		_, _ = fmt.Fprintf(p.out, "  - %s\n", it)
	}
}
