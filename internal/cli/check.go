package cli

import (
	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit the configuration tree for inconsistencies",
	Long: `Audit the configuration tree without changing it. Reported problems are
Machines without a machine document, orphan machine documents and model
directories, Field-Mappings that name a removed header or measurement, and
Machine names without their Model prefix.

The command exits non-zero when a problem is found.`,
	GroupID: "maintenance",
	Args:    cobra.NoArgs,
	RunE:    runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	problems, err := deps.Store.Audit(cmd.Context())
	if err != nil {
		return err
	}
	p := printer(cmd)
	if len(problems) == 0 {
		p.Successf("Configuration is consistent.")
		return nil
	}
	for _, pr := range problems {
		p.Warnf("%s %s: %s", pr.Entity, pr.Name, pr.Detail)
	}
	return &store.ConsistencyError{
		Entity: "environment",
		Name:   deps.Env.Paths.Root,
		Detail: plural(len(problems), "problem") + " found",
	}
}
