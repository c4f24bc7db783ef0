package cli

import (
	"github.com/spf13/cobra"
)

var changelogCmd = &cobra.Command{
	Use:     "changelog",
	Short:   "Show the most recent entries of logs/changelog.txt",
	GroupID: "maintenance",
	Args:    cobra.NoArgs,
	RunE:    runChangelog,
}

func init() {
	rootCmd.AddCommand(changelogCmd)
	changelogCmd.Flags().IntP("lines", "n", 20, "number of entries to show, 0 for all")
}

func runChangelog(cmd *cobra.Command, _ []string) error {
	entries, err := deps.Store.Changelog(getIntFlag(cmd, "lines"))
	if err != nil {
		return err
	}
	p := printer(cmd)
	if len(entries) == 0 {
		p.Printf("No changes recorded.")
		return nil
	}
	for _, e := range entries {
		if e.Action == "" {
			p.Printf("%s", e.Raw)
			continue
		}
		p.Printf("%s  %s  %s  %s", e.Time, deps.Theme.Label(e.User), e.File, e.Action)
	}
	return nil
}
