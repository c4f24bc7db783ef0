package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// selectorImpl implements Selector.
type selectorImpl struct {
	theme    *Theme
	headless *HeadlessManager
}

// NewSelector creates a Selector.
func NewSelector(theme *Theme, hm *HeadlessManager) Selector {
	return &selectorImpl{theme: theme, headless: hm}
}

// Select picks one value. Without a terminal the first checked item wins.
func (s *selectorImpl) Select(label string, items []SelectItem) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("select %s: no options", label)
	}
	if s.headless.IsHeadless() {
		for _, it := range items {
			if it.Checked {
				return it.Value, nil
			}
		}
		return "", ErrHeadlessNoDefaults
	}
	return s.selectInteractive(label, items)
}

func (s *selectorImpl) selectInteractive(label string, items []SelectItem) (string, error) {
	var selected string
	opts := make([]huh.Option[string], len(items))
	for i, it := range items {
		opts[i] = huh.NewOption(optionKey(it), it.Value)
		if it.Checked {
			selected = it.Value
		}
	}
	sel := huh.NewSelect[string]().Title(label).Options(opts...).Value(&selected)
	if err := huh.NewForm(huh.NewGroup(sel)).WithTheme(s.theme.HuhTheme()).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("select: %w", err)
	}
	return selected, nil
}

// checkboxImpl implements Checkbox.
type checkboxImpl struct {
	theme    *Theme
	headless *HeadlessManager
}

// NewCheckbox creates a Checkbox.
func NewCheckbox(theme *Theme, hm *HeadlessManager) Checkbox {
	return &checkboxImpl{theme: theme, headless: hm}
}

// MultiSelect picks any number of values. Without a terminal the checked
// items are returned.
func (c *checkboxImpl) MultiSelect(label string, items []SelectItem) ([]string, error) {
	if c.headless.IsHeadless() {
		return checkedValues(items), nil
	}
	return c.multiSelectInteractive(label, items)
}

func (c *checkboxImpl) multiSelectInteractive(label string, items []SelectItem) ([]string, error) {
	selected := checkedValues(items)
	opts := make([]huh.Option[string], len(items))
	for i, it := range items {
		opts[i] = huh.NewOption(optionKey(it), it.Value).Selected(it.Checked)
	}
	ms := huh.NewMultiSelect[string]().Title(label).Options(opts...).Value(&selected)
	if err := huh.NewForm(huh.NewGroup(ms)).WithTheme(c.theme.HuhTheme()).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("multiselect: %w", err)
	}
	return selected, nil
}

func optionKey(it SelectItem) string {
	if it.Desc != "" {
		return it.Label + " - " + it.Desc
	}
	return it.Label
}

func checkedValues(items []SelectItem) []string {
	out := []string{}
	for _, it := range items {
		if it.Checked {
			out = append(out, it.Value)
		}
	}
	return out
}
