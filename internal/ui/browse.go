package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kim-interface/kimm/pkg/models"
)

// level is one depth of the catalogue browser.
type level int

const (
	levelModels level = iota
	levelMachines
	levelConfigs
	levelMappings
)

// entry is a list row. Path fields identify what Enter opens.
type entry struct {
	title   string
	desc    string
	model   string
	machine string
	config  string
}

func (e entry) Title() string       { return e.title }
func (e entry) Description() string { return e.desc }
func (e entry) FilterValue() string { return e.title }

// browser is the bubbletea model of `kimm browse`.
type browser struct {
	cat   models.Catalogue
	list  list.Model
	level level
	path  []entry
}

func newBrowser(theme *Theme, cat models.Catalogue) browser {
	delegate := list.NewDefaultDelegate()
	l := list.New(modelEntries(cat), delegate, 80, 24)
	l.Title = "Models"
	if !theme.NoColor {
		l.Styles.Title = l.Styles.Title.Background(theme.adaptive("#1D4ED8", ColorPrimary))
	}
	return browser{cat: cat, list: l}
}

// Browse runs the catalogue browser until the user quits.
func Browse(theme *Theme, cat models.Catalogue) error {
	if _, err := tea.NewProgram(newBrowser(theme, cat), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}

func (b browser) Init() tea.Cmd { return nil }

func (b browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.list.SetSize(msg.Width, msg.Height)
		return b, nil
	case tea.KeyMsg:
		if b.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return b, tea.Quit
		case "enter", "right", "l":
			return b.descend()
		case "esc", "backspace", "left", "h":
			return b.ascend()
		}
	}
	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	return b, cmd
}

func (b browser) View() string {
	return b.list.View()
}

func (b browser) descend() (tea.Model, tea.Cmd) {
	sel, ok := b.list.SelectedItem().(entry)
	if !ok || b.level == levelMappings {
		return b, nil
	}
	b.path = append(b.path, sel)
	b.level++
	return b, b.show()
}

func (b browser) ascend() (tea.Model, tea.Cmd) {
	if b.level == levelModels {
		return b, nil
	}
	b.path = b.path[:len(b.path)-1]
	b.level--
	return b, b.show()
}

// show loads the rows of the current level.
func (b *browser) show() tea.Cmd {
	var items []list.Item
	switch b.level {
	case levelModels:
		b.list.Title = "Models"
		items = modelEntries(b.cat)
	case levelMachines:
		m := b.model()
		b.list.Title = "Model " + m.Name
		items = machineEntries(m)
	case levelConfigs:
		mc := b.machine()
		b.list.Title = "Machine " + mc.Name
		items = configEntries(mc)
	case levelMappings:
		cfg := b.config()
		b.list.Title = "Configuration " + cfg.ID
		items = mappingEntries(cfg)
	}
	b.list.ResetFilter()
	b.list.Select(0)
	return b.list.SetItems(items)
}

func (b *browser) model() models.Model {
	m, _, _ := models.Find(b.cat.Models, b.path[0].model)
	return m
}

func (b *browser) machine() models.Machine {
	mc, _, _ := models.Find(b.model().Machines, b.path[1].machine)
	return mc
}

func (b *browser) config() models.MappingConfiguration {
	cfg, _, _ := models.Find(b.machine().MappingConfigurations, b.path[2].config)
	return cfg
}

func modelEntries(cat models.Catalogue) []list.Item {
	items := make([]list.Item, len(cat.Models))
	for i, m := range cat.Models {
		items[i] = entry{
			title: m.Name,
			desc:  fmt.Sprintf("%d machines | %s", len(m.Machines), joinOrNone(m.BaseInformation)),
			model: m.Name,
		}
	}
	return items
}

func machineEntries(m models.Model) []list.Item {
	items := make([]list.Item, len(m.Machines))
	for i, mc := range m.Machines {
		items[i] = entry{
			title:   mc.Name,
			desc:    fmt.Sprintf("%d configurations | %s", len(mc.MappingConfigurations), joinOrNone(mc.Measurements)),
			model:   m.Name,
			machine: mc.Name,
		}
	}
	return items
}

func configEntries(mc models.Machine) []list.Item {
	items := make([]list.Item, len(mc.MappingConfigurations))
	for i, cfg := range mc.MappingConfigurations {
		items[i] = entry{
			title:   cfg.ID,
			desc:    joinOrNone(cfg.Items()),
			model:   mc.Model,
			machine: mc.Name,
			config:  cfg.ID,
		}
	}
	return items
}

func mappingEntries(cfg models.MappingConfiguration) []list.Item {
	items := make([]list.Item, len(cfg.Configuration))
	for i, fm := range cfg.Configuration {
		items[i] = entry{
			title:  fm.Item,
			desc:   fmt.Sprintf("sheet %d, cluster %d (%s)", fm.Sheet, fm.Cluster, fm.Type),
			config: cfg.ID,
		}
	}
	return items
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
