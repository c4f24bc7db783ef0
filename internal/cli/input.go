package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/ui"
	"github.com/kim-interface/kimm/internal/validate"
	"github.com/kim-interface/kimm/pkg/models"
)

// ErrMissingInput is returned when a value is neither given on the command
// line nor can be asked for.
var ErrMissingInput = errors.New("missing input")

// getStringFlag retrieves a string flag value from the command.
func getStringFlag(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return val
}

// getBoolFlag retrieves a bool flag value from the command.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}
	return val
}

// getIntFlag retrieves an int flag value from the command.
func getIntFlag(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0
	}
	return val
}

// required turns a headless prompt failure into a message naming what to pass.
func required(err error, what string) error {
	if errors.Is(err, ui.ErrHeadlessNoDefaults) {
		return fmt.Errorf("%w: %s is required with --non-interactive", ErrMissingInput, what)
	}
	return err
}

// argOrPick returns args[0], or lets the operator choose from options.
func argOrPick(args []string, label string, options []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if len(options) == 0 {
		return "", fmt.Errorf("%w: no %s to choose from", models.ErrNotFound, strings.ToLower(label))
	}
	v, err := deps.Forms.Pick(label, options)
	return v, required(err, strings.ToLower(label)+" argument")
}

// argOrAsk returns args[0], or asks for a new name.
func argOrAsk(args []string, label string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	v, err := deps.Forms.Name(label, "name", "")
	return v, required(err, strings.ToLower(label)+" argument")
}

// renameTo returns the --rename value, or asks with current pre-filled. In
// headless mode current is kept.
func renameTo(cmd *cobra.Command, label, current string) (string, error) {
	if cmd.Flags().Changed("rename") {
		return getStringFlag(cmd, "rename"), nil
	}
	return deps.Forms.Name(label, "rename", current)
}

// listFlag returns the comma separated values of flag, or asks for them.
func listFlag(cmd *cobra.Command, flag, label string) ([]string, error) {
	if cmd.Flags().Changed(flag) {
		return ui.SplitList(getStringFlag(cmd, flag)), nil
	}
	return deps.Forms.Values(label, flag)
}

// slotsFlag returns the replacement list given with flag, or lets the
// operator edit current.
func slotsFlag(ctx context.Context, cmd *cobra.Command, flag, label string, current []string) ([]validate.Slot, error) {
	if cmd.Flags().Changed(flag) {
		return validate.CheckedSlots(ui.SplitList(getStringFlag(cmd, flag))), nil
	}
	return deps.Forms.Slots(ctx, label, flag, current)
}

// confirm returns true with --yes, otherwise asks. A declined confirmation
// is reported as a cancellation.
func confirm(cmd *cobra.Command, label string) error {
	if getBoolFlag(cmd, "yes") {
		return nil
	}
	ok, err := deps.Forms.Confirm(label)
	if err != nil {
		return err
	}
	if !ok {
		return ui.ErrCancelled
	}
	return nil
}

// cellMap is the parsed --map flag: item -> "sheet/cluster", in input order.
type cellMap struct {
	items []string
	cells map[string]string
}

// parseCellMap parses "Item=1/2,Other=2/1". An item without "=" is checked
// with no numbers, which validation reports.
func parseCellMap(s string) cellMap {
	m := cellMap{cells: map[string]string{}}
	for _, part := range ui.SplitList(s) {
		item, cell, _ := strings.Cut(part, "=")
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := m.cells[item]; !dup {
			m.items = append(m.items, item)
		}
		m.cells[item] = strings.TrimSpace(cell)
	}
	return m
}

// selections builds one selection per candidate, checked when the map names
// it. Mapped items that are no candidate are appended checked so validation
// can reject them.
func (m cellMap) selections(candidates []string) []validate.Selection {
	out := make([]validate.Selection, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[c] = true
		out = append(out, m.selection(c))
	}
	for _, item := range m.items {
		if !seen[item] {
			out = append(out, m.selection(item))
		}
	}
	return out
}

func (m cellMap) selection(item string) validate.Selection {
	cell, ok := m.cells[item]
	sel := validate.Selection{Item: item, Checked: ok}
	if ok {
		sel.Sheet, sel.Cluster = ui.ParseCell(cell)
	}
	return sel
}

// currentSelections pre-fills the candidates from an existing configuration.
func currentSelections(cfg models.MappingConfiguration, candidates []string) []validate.Selection {
	out := make([]validate.Selection, len(candidates))
	for i, c := range candidates {
		out[i] = validate.Selection{Item: c}
		for _, fm := range cfg.Configuration {
			if fm.Item == c {
				out[i] = validate.Select(c, fm.Sheet, fm.Cluster)
				break
			}
		}
	}
	return out
}

// machineKey locates a Machine by name. --model narrows the search;
// otherwise the name must be unique across Models.
func machineKey(ctx context.Context, cmd *cobra.Command, args []string) (models.MachineKey, error) {
	model := getStringFlag(cmd, "model")
	if len(args) > 0 {
		if model != "" {
			return models.MachineKey{Model: model, Machine: args[0]}, nil
		}
		return deps.Engine.FindMachine(ctx, args[0])
	}

	keys, err := deps.Engine.MachineKeys(ctx)
	if err != nil {
		return models.MachineKey{}, err
	}
	options := make([]string, 0, len(keys))
	byName := make(map[string]models.MachineKey, len(keys))
	for _, k := range keys {
		if model != "" && k.Model != model {
			continue
		}
		options = append(options, k.String())
		byName[k.String()] = k
	}
	picked, err := argOrPick(nil, "Machine", options)
	if err != nil {
		return models.MachineKey{}, err
	}
	return byName[picked], nil
}

// modelRef and machineRef wrap a key for the engine.
func modelRef(k models.MachineKey) models.Ref[models.Model] {
	return models.ByKey[models.Model](k.Model)
}

func machineRef(k models.MachineKey) models.Ref[models.Machine] {
	return models.ByKey[models.Machine](k.Machine)
}

func configRef(id string) models.Ref[models.MappingConfiguration] {
	return models.ByKey[models.MappingConfiguration](id)
}

// printer writes styled output to the command's stdout.
func printer(cmd *cobra.Command) *ui.Printer {
	return ui.NewPrinter(deps.Theme, cmd.OutOrStdout())
}

// plural formats n with noun, adding an "s" unless n is 1.
func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
