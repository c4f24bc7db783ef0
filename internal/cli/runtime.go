package cli

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/runtimelog"
)

var runtimeCmd = &cobra.Command{
	Use:     "runtime",
	Short:   "Show the average duration of an i-Reporter script call",
	GroupID: "maintenance",
	Args:    cobra.NoArgs,
	RunE:    runRuntime,
}

func init() {
	rootCmd.AddCommand(runtimeCmd)
}

func runRuntime(cmd *cobra.Command, _ []string) error {
	sum, err := runtimelog.Read(deps.Env.Paths.RuntimeLog)
	p := printer(cmd)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, runtimelog.ErrNoEntries):
		p.Warnf("No script calls recorded in %s.", deps.Env.Paths.RuntimeLog)
		return nil
	case err != nil:
		return err
	}
	p.Printf("%s (%s)", sum, plural(sum.Calls, "call"))
	return nil
}
