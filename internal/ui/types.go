// Package ui holds the terminal front end of kimm: styled output, huh forms
// for entity input, the backup spinner, the catalogue browser and markdown
// rendering. Every interactive component falls back to defaults when no
// terminal is attached.
package ui

import "errors"

var (
	// ErrCancelled is returned when the user aborts a form.
	ErrCancelled = errors.New("ui: cancelled by user")

	// ErrHeadlessNoDefaults is returned when a prompt runs without a
	// terminal and no default value is available.
	ErrHeadlessNoDefaults = errors.New("ui: no terminal and no default value")
)

// SelectItem is one option of a select or multi-select.
type SelectItem struct {
	Label   string
	Value   string
	Desc    string
	Checked bool
}

// Prompt reads free text and confirmations.
type Prompt interface {
	Input(label string, opts ...InputOption) (string, error)
	Confirm(label string, def bool) (bool, error)
}

// Selector picks one item.
type Selector interface {
	Select(label string, items []SelectItem) (string, error)
}

// Checkbox picks any number of items.
type Checkbox interface {
	MultiSelect(label string, items []SelectItem) ([]string, error)
}

// Progress creates spinners for long running work.
type Progress interface {
	Spinner(title string) Spinner
}

// Spinner is an indeterminate activity indicator.
type Spinner interface {
	SetTitle(title string)
	Stop()
}
