package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/engine"
	"github.com/kim-interface/kimm/internal/validate"
	"github.com/kim-interface/kimm/pkg/models"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Add, edit, duplicate, remove and inspect Mapping Configurations",
	GroupID: "catalogue",
	Long: `Mapping Configurations place base information headers and measurements
of a Machine on a sheet and cluster of the i-Reporter form.

Mappings are given as --map "Item=SHEET/CLUSTER,..." or picked in a form.`,
}

var configAddCmd = &cobra.Command{
	Use:     "add [MACHINE [ID]]",
	Short:   "Add a Mapping Configuration to a Machine",
	Example: `  kimm config add AB1-Press 1 --map "Operator=1/1,Weight=1/2"`,
	Args:    cobra.MaximumNArgs(2),
	RunE:    runConfigAdd,
}

var configEditCmd = &cobra.Command{
	Use:   "edit [MACHINE [ID]]",
	Short: "Change the id or the Field-Mappings of a Mapping Configuration",
	Long: `Change the id or the Field-Mappings of a Mapping Configuration.

--map replaces every Field-Mapping; items it does not name are dropped.`,
	Example: `  kimm config edit AB1-Press 1 --rename 2
  kimm config edit AB1-Press 1 --map "Operator=2/1"`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfigEdit,
}

var configDuplicateCmd = &cobra.Command{
	Use:     "duplicate [MACHINE [ID [NEW-ID]]]",
	Aliases: []string{"dup"},
	Short:   "Copy a Mapping Configuration under a new id",
	Args:    cobra.MaximumNArgs(3),
	RunE:    runConfigDuplicate,
}

var configRemoveCmd = &cobra.Command{
	Use:     "remove [MACHINE [ID]]",
	Aliases: []string{"rm"},
	Short:   "Remove a Mapping Configuration",
	Args:    cobra.MaximumNArgs(2),
	RunE:    runConfigRemove,
}

var configListCmd = &cobra.Command{
	Use:     "list [MACHINE]",
	Aliases: []string{"ls"},
	Short:   "List the Mapping Configuration ids of a Machine",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runConfigList,
}

var configViewCmd = &cobra.Command{
	Use:   "view [MACHINE [ID]]",
	Short: "Show the Field-Mappings of a Mapping Configuration",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runConfigView,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configAddCmd, configEditCmd, configDuplicateCmd, configRemoveCmd, configListCmd, configViewCmd)

	configCmd.PersistentFlags().StringP("model", "m", "", "owning Model of the Machine")
	configAddCmd.Flags().String("map", "", `Field-Mappings as "Item=SHEET/CLUSTER,..."`)
	configEditCmd.Flags().String("rename", "", "new Mapping Configuration id")
	configEditCmd.Flags().String("map", "", `Field-Mappings replacing the current ones, as "Item=SHEET/CLUSTER,..."`)
	configRemoveCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

// configTarget is a resolved Machine, its Model and the remaining arguments.
type configTarget struct {
	model   models.Model
	machine models.Machine
	rest    []string
}

func (t configTarget) key() models.MachineKey {
	return models.MachineKey{Model: t.model.Name, Machine: t.machine.Name}
}

// resolveTarget resolves the Machine of args[0] and its Model.
func resolveTarget(cmd *cobra.Command, args []string) (configTarget, error) {
	ctx := cmd.Context()
	head, rest := args, []string(nil)
	if len(args) > 1 {
		head, rest = args[:1], args[1:]
	}
	k, err := machineKey(ctx, cmd, head)
	if err != nil {
		return configTarget{}, err
	}
	m, err := deps.Engine.Model(ctx, modelRef(k))
	if err != nil {
		return configTarget{}, err
	}
	mc, err := deps.Engine.Machine(ctx, modelRef(k), machineRef(k))
	if err != nil {
		return configTarget{}, err
	}
	return configTarget{model: m, machine: mc, rest: rest}, nil
}

// pickConfig returns the configuration named by t.rest[0], or lets the
// operator choose.
func (t configTarget) pickConfig() (models.MappingConfiguration, error) {
	id, err := argOrPick(t.rest, "Mapping Configuration", models.Keys(t.machine.MappingConfigurations))
	if err != nil {
		return models.MappingConfiguration{}, err
	}
	cfg, _, ok := models.Find(t.machine.MappingConfigurations, id)
	if !ok {
		return models.MappingConfiguration{}, fmt.Errorf("mapping configuration of %s: %w: %q", t.machine.Name, models.ErrNotFound, id)
	}
	return cfg, nil
}

// nextID suggests the smallest unused positive integer id.
func nextID(cfgs []models.MappingConfiguration) string {
	for n := 1; ; n++ {
		id := strconv.Itoa(n)
		if _, _, taken := models.Find(cfgs, id); !taken {
			return id
		}
	}
}

func runConfigAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := resolveTarget(cmd, args)
	if err != nil {
		return err
	}
	id := ""
	if len(t.rest) > 0 {
		id = t.rest[0]
	} else if id, err = deps.Forms.Name("Mapping Configuration id", "id", nextID(t.machine.MappingConfigurations)); err != nil {
		return err
	}

	var in engine.ConfigInput
	if cmd.Flags().Changed("map") {
		cm := parseCellMap(getStringFlag(cmd, "map"))
		all := cm.selections(models.AvailableItems(t.model.BaseInformation, t.machine.Measurements))
		in.BaseInformation = all[:len(t.model.BaseInformation)]
		in.Measurements = all[len(t.model.BaseInformation):]
	} else {
		if in.BaseInformation, err = deps.Forms.Mappings(ctx, "Base information", currentSelections(models.MappingConfiguration{}, t.model.BaseInformation)); err != nil {
			return err
		}
		if in.Measurements, err = deps.Forms.Mappings(ctx, "Measurements", currentSelections(models.MappingConfiguration{}, t.machine.Measurements)); err != nil {
			return err
		}
	}

	cfg, err := deps.Engine.AddConfig(ctx, modelRef(t.key()), machineRef(t.key()), id, in)
	if err != nil {
		return err
	}
	printer(cmd).Successf("Mapping Configuration %s added to %s with %s.",
		cfg.ID, t.machine.Name, plural(len(cfg.Configuration), "Field-Mapping"))
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := resolveTarget(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := t.pickConfig()
	if err != nil {
		return err
	}
	newID, err := renameTo(cmd, "Mapping Configuration id", cfg.ID)
	if err != nil {
		return err
	}

	available := models.AvailableItems(t.model.BaseInformation, t.machine.Measurements)
	var selections []validate.Selection
	if cmd.Flags().Changed("map") {
		selections = parseCellMap(getStringFlag(cmd, "map")).selections(available)
	} else if selections, err = deps.Forms.Mappings(ctx, "Configuration", currentSelections(cfg, available)); err != nil {
		return err
	}

	updated, err := deps.Engine.EditConfig(ctx, modelRef(t.key()), machineRef(t.key()), models.Resolved(cfg), newID, selections)
	if err != nil {
		return err
	}
	p := printer(cmd)
	if updated.ID != cfg.ID {
		p.Successf("Mapping Configuration %s of %s renamed to %s.", cfg.ID, t.machine.Name, updated.ID)
	} else {
		p.Successf("Mapping Configuration %s of %s updated.", updated.ID, t.machine.Name)
	}
	return nil
}

func runConfigDuplicate(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := t.pickConfig()
	if err != nil {
		return err
	}
	newID := ""
	if len(t.rest) > 1 {
		newID = t.rest[1]
	} else if newID, err = deps.Forms.Name("New Mapping Configuration id", "id", nextID(t.machine.MappingConfigurations)); err != nil {
		return err
	}

	dup, err := deps.Engine.DuplicateConfig(cmd.Context(), modelRef(t.key()), machineRef(t.key()), models.Resolved(cfg), newID)
	if err != nil {
		return err
	}
	printer(cmd).Successf("Mapping Configuration %s of %s duplicated as %s.", cfg.ID, t.machine.Name, dup.ID)
	return nil
}

func runConfigRemove(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := t.pickConfig()
	if err != nil {
		return err
	}
	if err := confirm(cmd, fmt.Sprintf("Remove Mapping Configuration %s of %s?", cfg.ID, t.machine.Name)); err != nil {
		return err
	}
	if err := deps.Engine.RemoveConfig(cmd.Context(), modelRef(t.key()), machineRef(t.key()), models.Resolved(cfg)); err != nil {
		return err
	}
	printer(cmd).Successf("Mapping Configuration %s of %s removed.", cfg.ID, t.machine.Name)
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	k, err := machineKey(ctx, cmd, args)
	if err != nil {
		return err
	}
	ids, err := deps.Engine.ConfigIDs(ctx, modelRef(k), machineRef(k))
	if err != nil {
		return err
	}
	p := printer(cmd)
	p.Heading("Mapping Configurations of " + k.Machine)
	p.List(ids)
	return nil
}

func runConfigView(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := t.pickConfig()
	if err != nil {
		return err
	}
	p := printer(cmd)
	p.Heading(fmt.Sprintf("Mapping Configuration %s of %s", cfg.ID, t.machine.Name))
	rows := make([]string, len(cfg.Configuration))
	for i, fm := range cfg.Configuration {
		rows[i] = fmt.Sprintf("%s: sheet %d, cluster %d", fm.Item, fm.Sheet, fm.Cluster)
	}
	p.List(rows)
	return nil
}
