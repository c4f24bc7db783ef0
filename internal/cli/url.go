package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/ireporter"
)

var urlCmd = &cobra.Command{
	Use:   "url [MACHINE [ID]]",
	Short: "Print the i-Reporter URL of a Mapping Configuration",
	Long: `Print the i-Reporter URL that fetches one Mapping Configuration of a
Machine. The base URL is ireporter.base_url of kimm.yaml.`,
	Example: `  kimm url AB1-Press 1`,
	GroupID: "catalogue",
	Args:    cobra.MaximumNArgs(2),
	RunE:    runURL,
}

func init() {
	rootCmd.AddCommand(urlCmd)
	urlCmd.Flags().StringP("model", "m", "", "owning Model of the Machine")
}

func runURL(cmd *cobra.Command, args []string) error {
	machine, id, err := urlSelection(cmd, args)
	if err != nil {
		return err
	}
	u, err := ireporter.Build(deps.Settings.IReporter.BaseURL, machine, id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), u)
	return err
}

// urlSelection returns the Machine and configuration id. Names given as
// arguments are used as is; missing ones are picked, or left empty in
// headless mode for Build to report.
func urlSelection(cmd *cobra.Command, args []string) (machine, id string, err error) {
	ctx := cmd.Context()
	if len(args) == 2 {
		return args[0], args[1], nil
	}
	if deps.Forms.Headless() {
		if len(args) == 1 {
			return args[0], "", nil
		}
		return "", "", nil
	}
	k, err := machineKey(ctx, cmd, args)
	if err != nil {
		return "", "", err
	}
	ids, err := deps.Engine.ConfigIDs(ctx, modelRef(k), machineRef(k))
	if err != nil {
		return "", "", err
	}
	if len(ids) == 0 {
		return k.Machine, "", nil
	}
	id, err = argOrPick(nil, "Mapping Configuration", ids)
	return k.Machine, id, err
}
