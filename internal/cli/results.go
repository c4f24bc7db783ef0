package cli

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/runtimelog"
)

var resultsCmd = &cobra.Command{
	Use:     "results",
	Short:   "Show the results of the latest i-Reporter script call",
	GroupID: "maintenance",
	Args:    cobra.NoArgs,
	RunE:    runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, _ []string) error {
	lines, err := runtimelog.Results(deps.Env.Paths.Results)
	p := printer(cmd)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, runtimelog.ErrNoEntries):
		p.Warnf("No results recorded in %s.", deps.Env.Paths.Results)
		return nil
	case err != nil:
		return err
	}
	p.Heading("Current Results")
	for _, line := range lines {
		p.Printf("%s", line)
	}
	return nil
}
