package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kim-interface/kimm/internal/validate"
)

// Forms composes the prompts that collect entity input.
type Forms struct {
	theme    *Theme
	headless *HeadlessManager
	prompt   Prompt
	selector Selector
	checkbox Checkbox
}

// NewForms creates Forms sharing theme and hm.
func NewForms(theme *Theme, hm *HeadlessManager) *Forms {
	return &Forms{
		theme:    theme,
		headless: hm,
		prompt:   NewPrompt(theme, hm),
		selector: NewSelector(theme, hm),
		checkbox: NewCheckbox(theme, hm),
	}
}

// Headless reports whether the forms fall back to defaults.
func (f *Forms) Headless() bool {
	return f.headless.IsHeadless()
}

// Name asks for an entity name. key selects the headless default.
func (f *Forms) Name(label, key, current string) (string, error) {
	return f.prompt.Input(label, WithKey(key), WithDefault(current))
}

// Confirm asks before a destructive operation.
func (f *Forms) Confirm(label string) (bool, error) {
	return f.prompt.Confirm(label, false)
}

// Pick chooses one of options, such as the Machine a command acts on.
func (f *Forms) Pick(label string, options []string) (string, error) {
	items := make([]SelectItem, len(options))
	for i, o := range options {
		items[i] = SelectItem{Label: o, Value: o}
	}
	return f.selector.Select(label, items)
}

// Values asks for a comma separated list, such as the headers of a new Model.
func (f *Forms) Values(label, key string) ([]string, error) {
	v, err := f.prompt.Input(label, WithKey(key), WithPlaceholder("comma separated"))
	if errors.Is(err, ErrHeadlessNoDefaults) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return SplitList(v), nil
}

// Slots edits an existing list: each current value can be unchecked or
// retyped, and new values can be appended.
func (f *Forms) Slots(ctx context.Context, label, key string, current []string) ([]validate.Slot, error) {
	if f.headless.IsHeadless() {
		if v, ok := f.headless.GetDefault(key); ok {
			return validate.CheckedSlots(SplitList(v)), nil
		}
		return validate.CheckedSlots(current), nil
	}

	items := make([]SelectItem, len(current))
	for i, v := range current {
		items[i] = SelectItem{Label: v, Value: v, Checked: true}
	}
	keep, err := f.checkbox.MultiSelect(label+": keep", items)
	if err != nil {
		return nil, err
	}
	kept := make(map[string]bool, len(keep))
	for _, v := range keep {
		kept[v] = true
	}

	slots := make([]validate.Slot, 0, len(current))
	for _, v := range current {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !kept[v] {
			slots = append(slots, validate.Slot{Checked: false, Value: v})
			continue
		}
		edited, err := f.prompt.Input(label+": "+v, WithDefault(v))
		if err != nil {
			return nil, err
		}
		slots = append(slots, validate.Slot{Checked: true, Value: edited})
	}

	added, err := f.prompt.Input(label+": add", WithPlaceholder("comma separated, optional"))
	if err != nil {
		return nil, err
	}
	return append(slots, validate.CheckedSlots(SplitList(added))...), nil
}

// Mappings edits the Field-Mappings of a Mapping Configuration. Every
// candidate item is offered; checked items then get a sheet and cluster.
func (f *Forms) Mappings(ctx context.Context, label string, candidates []validate.Selection) ([]validate.Selection, error) {
	if f.headless.IsHeadless() {
		return candidates, nil
	}

	items := make([]SelectItem, len(candidates))
	for i, c := range candidates {
		items[i] = SelectItem{Label: c.Item, Value: c.Item, Checked: c.Checked}
	}
	picked, err := f.checkbox.MultiSelect(label, items)
	if err != nil {
		return nil, err
	}
	checked := make(map[string]bool, len(picked))
	for _, v := range picked {
		checked[v] = true
	}

	out := make([]validate.Selection, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.Checked = checked[c.Item]
		if c.Checked {
			cell, err := f.prompt.Input(
				fmt.Sprintf("%s: sheet/cluster", c.Item),
				WithDefault(FormatCell(c.Sheet, c.Cluster)),
				WithPlaceholder("1/1"),
			)
			if err != nil {
				return nil, err
			}
			c.Sheet, c.Cluster = ParseCell(cell)
		}
		out[i] = c
	}
	return out, nil
}

// SplitList splits a comma separated list and drops blank entries.
func SplitList(s string) []string {
	out := []string{}
	for p := range strings.SplitSeq(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ParseCell splits "sheet/cluster". Missing parts come back empty so the
// validator can report them.
func ParseCell(s string) (sheet, cluster string) {
	sheet, cluster, _ = strings.Cut(strings.TrimSpace(s), "/")
	return strings.TrimSpace(sheet), strings.TrimSpace(cluster)
}

// FormatCell joins sheet and cluster, or returns "" when both are empty.
func FormatCell(sheet, cluster string) string {
	if sheet == "" && cluster == "" {
		return ""
	}
	return sheet + "/" + cluster
}
