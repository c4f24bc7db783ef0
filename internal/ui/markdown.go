package ui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// DefaultWrap is the word wrap width of rendered markdown.
const DefaultWrap = 80

// RenderMarkdown renders md for the terminal. NoColor themes use the
// plain ASCII style.
func (t *Theme) RenderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWrap
	}
	style := "dark"
	switch {
	case t.NoColor:
		style = "notty"
	case t.Mode == "light":
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
