package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/pkg/models"
)

var machineCmd = &cobra.Command{
	Use:     "machine",
	Short:   "Add, edit, remove and inspect Machines",
	GroupID: "catalogue",
}

var machineAddCmd = &cobra.Command{
	Use:   "add [NAME]",
	Short: "Add a Machine with its measurements",
	Long: `Add a Machine with its measurements.

The Machine name must start with the name of its Model. Without --model the
Model whose name is the longest prefix of the Machine name is used.`,
	Example: `  kimm machine add AB1-Press --measurements "Weight,Bore,Height"
  kimm machine add AB1-Press --model AB1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMachineAdd,
}

var machineEditCmd = &cobra.Command{
	Use:   "edit [MACHINE]",
	Short: "Rename a Machine or change its measurements",
	Long: `Rename a Machine or change its measurements.

Field-Mappings that referenced a removed measurement are pruned.`,
	Example: `  kimm machine edit AB1-Press --rename AB1-Press2
  kimm machine edit AB1-Press --measurements "Weight,Height"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMachineEdit,
}

var machineRemoveCmd = &cobra.Command{
	Use:     "remove [MACHINE]",
	Aliases: []string{"rm"},
	Short:   "Remove a Machine and its Mapping Configurations",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runMachineRemove,
}

var machineListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the Machines of every Model, or of --model",
	Args:    cobra.NoArgs,
	RunE:    runMachineList,
}

var machineViewCmd = &cobra.Command{
	Use:   "view [MACHINE]",
	Short: "Show the measurements and Mapping Configurations of a Machine",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMachineView,
}

func init() {
	rootCmd.AddCommand(machineCmd)
	machineCmd.AddCommand(machineAddCmd, machineEditCmd, machineRemoveCmd, machineListCmd, machineViewCmd)

	machineCmd.PersistentFlags().StringP("model", "m", "", "owning Model")
	machineAddCmd.Flags().String("measurements", "", "comma separated measurements")
	machineEditCmd.Flags().String("rename", "", "new Machine name")
	machineEditCmd.Flags().String("measurements", "", "comma separated measurements replacing the current ones")
	machineRemoveCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

// ownerOf picks the Model a new Machine belongs to: --model, or the Model
// with the longest name prefixing the Machine name.
func ownerOf(ctx context.Context, cmd *cobra.Command, name string) (string, error) {
	if m := getStringFlag(cmd, "model"); m != "" {
		return m, nil
	}
	cat, err := deps.Engine.Catalogue(ctx)
	if err != nil {
		return "", err
	}
	owner := ""
	for _, m := range cat.Models {
		if models.HasPrefix(name, m.Name) && len(m.Name) > len(owner) {
			owner = m.Name
		}
	}
	if owner != "" {
		return owner, nil
	}
	picked, err := argOrPick(nil, "Model", cat.ModelNames())
	if err != nil {
		return "", fmt.Errorf("no Model prefixes %q: %w", name, err)
	}
	return picked, nil
}

// pickMachine resolves the Machine named by args, or lets the operator choose.
func pickMachine(cmd *cobra.Command, args []string) (models.Machine, error) {
	ctx := cmd.Context()
	k, err := machineKey(ctx, cmd, args)
	if err != nil {
		return models.Machine{}, err
	}
	return deps.Engine.Machine(ctx, modelRef(k), machineRef(k))
}

func runMachineAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, err := argOrAsk(args, "Machine name")
	if err != nil {
		return err
	}
	owner, err := ownerOf(ctx, cmd, name)
	if err != nil {
		return err
	}
	meas, err := listFlag(cmd, "measurements", "Measurements")
	if err != nil {
		return err
	}
	mc, err := deps.Engine.AddMachine(ctx, models.ByKey[models.Model](owner), name, meas)
	if err != nil {
		return err
	}
	printer(cmd).Successf("Machine %s added to Model %s with %s.",
		mc.Name, mc.Model, plural(len(mc.Measurements), "measurement"))
	return nil
}

func runMachineEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	mc, err := pickMachine(cmd, args)
	if err != nil {
		return err
	}
	newName, err := renameTo(cmd, "Machine name", mc.Name)
	if err != nil {
		return err
	}
	slots, err := slotsFlag(ctx, cmd, "measurements", "Measurements", mc.Measurements)
	if err != nil {
		return err
	}
	updated, err := deps.Engine.EditMachine(ctx, models.ByKey[models.Model](mc.Model), models.Resolved(mc), newName, slots)
	if err != nil {
		return err
	}
	p := printer(cmd)
	if updated.Name != mc.Name {
		p.Successf("Machine %s renamed to %s.", mc.Name, updated.Name)
	} else {
		p.Successf("Machine %s updated.", updated.Name)
	}
	return nil
}

func runMachineRemove(cmd *cobra.Command, args []string) error {
	mc, err := pickMachine(cmd, args)
	if err != nil {
		return err
	}
	label := fmt.Sprintf("Remove Machine %s and its %s?", mc.Name,
		plural(len(mc.MappingConfigurations), "Mapping Configuration"))
	if err := confirm(cmd, label); err != nil {
		return err
	}
	if err := deps.Engine.RemoveMachine(cmd.Context(), models.ByKey[models.Model](mc.Model), models.Resolved(mc)); err != nil {
		return err
	}
	printer(cmd).Successf("Machine %s removed.", mc.Name)
	return nil
}

func runMachineList(cmd *cobra.Command, _ []string) error {
	cat, err := deps.Engine.Catalogue(cmd.Context())
	if err != nil {
		return err
	}
	only := getStringFlag(cmd, "model")
	p := printer(cmd)
	if len(cat.Models) == 0 && only == "" {
		p.List(nil)
		return nil
	}
	found := only == ""
	for _, m := range cat.Models {
		if only != "" && m.Name != only {
			continue
		}
		found = true
		p.Heading("Model " + m.Name)
		p.List(m.MachineNames())
	}
	if !found {
		return fmt.Errorf("model: %w: %q", models.ErrNotFound, only)
	}
	return nil
}

func runMachineView(cmd *cobra.Command, args []string) error {
	mc, err := pickMachine(cmd, args)
	if err != nil {
		return err
	}
	p := printer(cmd)
	p.Heading("Machine " + mc.Name)
	p.Field("Model", mc.Model)
	p.Field("Measurements", "")
	p.List(mc.Measurements)
	p.Field("Mapping Configurations", "")
	p.List(models.Keys(mc.MappingConfigurations))
	return nil
}
