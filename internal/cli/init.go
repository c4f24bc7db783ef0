package cli

import (
	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/fsutil"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration tree and kimm.yaml of an environment",
	Long: `Create the configuration tree, the logs directory and the backup slots
of an environment, and write kimm.yaml with the default settings.

Every other command bootstraps a missing configuration tree as well; init
additionally writes kimm.yaml.

Examples:
  kimm init                 Initialize the working directory
  kimm --root /srv/kim init Initialize /srv/kim
  kimm init --force         Rewrite kimm.yaml with the effective settings`,
	GroupID:     "maintenance",
	Annotations: map[string]string{annotationSkipBackup: "true"},
	Args:        cobra.NoArgs,
	RunE:        runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "rewrite an existing kimm.yaml")
}

func runInit(cmd *cobra.Command, _ []string) error {
	p := printer(cmd)
	paths := deps.Env.Paths
	p.Successf("Environment ready at %s.", paths.Root)
	p.Field("Configuration", paths.RootFile)
	p.Field("Changelog", paths.Changelog)
	p.Field("Backups", paths.Backups)

	settings := deps.Config.Path()
	if fsutil.Exists(settings) && !getBoolFlag(cmd, "force") {
		p.Field("Settings", settings+" (kept)")
		return nil
	}
	if err := deps.Config.Save(); err != nil {
		return err
	}
	p.Field("Settings", settings)
	deps.Logger.Info().Str("path", settings).Msg("settings written")
	return nil
}
