package cli

import (
	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/pkg/models"
)

var modelCmd = &cobra.Command{
	Use:     "model",
	Short:   "Add, edit, remove and inspect Models",
	GroupID: "catalogue",
}

var modelAddCmd = &cobra.Command{
	Use:   "add [NAME]",
	Short: "Add a Model with its base information headers",
	Example: `  kimm model add AB1 --headers "Operator,Shift,Lot"
  kimm model add            (asks for the name and headers)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModelAdd,
}

var modelEditCmd = &cobra.Command{
	Use:   "edit [MODEL]",
	Short: "Rename a Model or change its headers",
	Long: `Rename a Model or change its base information headers.

Renaming rewrites the prefix of every Machine name that starts with the old
Model name, in the root document, in each machine document and on disk.
Field-Mappings that referenced a removed header are pruned.`,
	Example: `  kimm model edit AB1 --rename AB2
  kimm model edit AB1 --headers "Operator,Lot"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModelEdit,
}

var modelRemoveCmd = &cobra.Command{
	Use:     "remove [MODEL]",
	Aliases: []string{"rm"},
	Short:   "Remove a Model and all of its Machines",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runModelRemove,
}

var modelListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List every Model",
	Args:    cobra.NoArgs,
	RunE:    runModelList,
}

var modelViewCmd = &cobra.Command{
	Use:   "view [MODEL]",
	Short: "Show the headers and Machines of a Model",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModelView,
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelAddCmd, modelEditCmd, modelRemoveCmd, modelListCmd, modelViewCmd)

	modelAddCmd.Flags().String("headers", "", "comma separated base information headers")
	modelEditCmd.Flags().String("rename", "", "new Model name")
	modelEditCmd.Flags().String("headers", "", "comma separated headers replacing the current ones")
	modelRemoveCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

// pickModel returns the Model named by args, or lets the operator choose.
func pickModel(cmd *cobra.Command, args []string) (models.Model, error) {
	ctx := cmd.Context()
	cat, err := deps.Engine.Catalogue(ctx)
	if err != nil {
		return models.Model{}, err
	}
	name, err := argOrPick(args, "Model", cat.ModelNames())
	if err != nil {
		return models.Model{}, err
	}
	return deps.Engine.Model(ctx, models.ByKey[models.Model](name))
}

func runModelAdd(cmd *cobra.Command, args []string) error {
	name, err := argOrAsk(args, "Model name")
	if err != nil {
		return err
	}
	headers, err := listFlag(cmd, "headers", "Base information headers")
	if err != nil {
		return err
	}
	m, err := deps.Engine.AddModel(cmd.Context(), name, headers)
	if err != nil {
		return err
	}
	printer(cmd).Successf("Model %s added with %d header(s).", m.Name, len(m.BaseInformation))
	return nil
}

func runModelEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m, err := pickModel(cmd, args)
	if err != nil {
		return err
	}
	newName, err := renameTo(cmd, "Model name", m.Name)
	if err != nil {
		return err
	}
	slots, err := slotsFlag(ctx, cmd, "headers", "Base information headers", m.BaseInformation)
	if err != nil {
		return err
	}
	updated, err := deps.Engine.EditModel(ctx, models.Resolved(m), newName, slots)
	if err != nil {
		return err
	}
	p := printer(cmd)
	if updated.Name != m.Name {
		p.Successf("Model %s renamed to %s.", m.Name, updated.Name)
	} else {
		p.Successf("Model %s updated.", updated.Name)
	}
	return nil
}

func runModelRemove(cmd *cobra.Command, args []string) error {
	m, err := pickModel(cmd, args)
	if err != nil {
		return err
	}
	if err := confirm(cmd, "Remove Model "+m.Name+" and its "+plural(len(m.Machines), "Machine")+"?"); err != nil {
		return err
	}
	if err := deps.Engine.RemoveModel(cmd.Context(), models.Resolved(m)); err != nil {
		return err
	}
	printer(cmd).Successf("Model %s removed.", m.Name)
	return nil
}

func runModelList(cmd *cobra.Command, _ []string) error {
	cat, err := deps.Engine.Catalogue(cmd.Context())
	if err != nil {
		return err
	}
	p := printer(cmd)
	p.Heading("Models")
	p.List(cat.ModelNames())
	return nil
}

func runModelView(cmd *cobra.Command, args []string) error {
	m, err := pickModel(cmd, args)
	if err != nil {
		return err
	}
	p := printer(cmd)
	p.Heading("Model " + m.Name)
	p.Field("Base information", "")
	p.List(m.BaseInformation)
	p.Field("Machines", "")
	p.List(m.MachineNames())
	return nil
}
