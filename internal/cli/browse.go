package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/ui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse Models, Machines and Mapping Configurations",
	Long: `Browse the catalogue level by level.

Keys: enter or right to open, esc or left to go back, / to filter, q to quit.`,
	GroupID: "catalogue",
	Args:    cobra.NoArgs,
	RunE:    runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	if deps.Forms.Headless() {
		return fmt.Errorf("%w: browse needs a terminal; use the list and view commands", ErrMissingInput)
	}
	cat, err := deps.Engine.Catalogue(cmd.Context())
	if err != nil {
		return err
	}
	return ui.Browse(deps.Theme, cat)
}
