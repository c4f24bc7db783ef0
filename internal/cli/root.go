package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/engine"
	"github.com/kim-interface/kimm/internal/ireporter"
	"github.com/kim-interface/kimm/internal/ui"
	"github.com/kim-interface/kimm/pkg/version"
)

// annotationSkipBackup marks commands that must not rotate backups on start.
const annotationSkipBackup = "kimm/skip-backup"

// globals holds the persistent flag values.
var globals Options

var rootCmd = &cobra.Command{
	Use:   "kimm",
	Short: "KIM Interface Manager: maintain the i-Reporter mapping configuration",
	Long: `kimm maintains the KIM Interface configuration of an i-Reporter site:
Models with their base information headers, Machines with their measurements,
and the Mapping Configurations that place every header and measurement on a
sheet and cluster of the report form.

Every change is written to the JSON configuration tree, recorded in
logs/changelog.txt and backed up under bin/backups.`,
	Version:           version.GetVersion(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// @MX:ANCHOR: [AUTO] Execute is the main entry point for the kimm CLI
// @MX:REASON: [AUTO] called from cmd/kimm/main.go
// Execute runs the root command and reports a failure on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(errOut, err)
	}
	if deps != nil {
		deps.Close()
	}
	return err
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("kimm %s\n", version.GetFullVersion()))
	rootCmd.AddGroup(
		&cobra.Group{ID: "catalogue", Title: "Catalogue Commands:"},
		&cobra.Group{ID: "maintenance", Title: "Maintenance Commands:"},
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globals.Root, "root", "", "environment root (default $KIMM_ROOT or the working directory)")
	pf.StringVar(&globals.User, "user", "", "operator name recorded in timestamps (default user.name or the login name)")
	pf.BoolVar(&globals.NoBackup, "no-backup", false, "skip the backup rotation at start")
	pf.BoolVar(&globals.NonInteractive, "non-interactive", false, "never show forms; take every value from flags")
	pf.StringVar(&globals.LogLevel, "log-level", "", "override logging.level")
}

// setup wires the dependencies, bootstraps the environment and rotates the
// backups before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	d, err := InitDependencies(ctx, globals)
	if err != nil {
		return err
	}
	deps = d

	created, err := d.Store.Init(ctx)
	if err != nil {
		return fmt.Errorf("initialize environment: %w", err)
	}
	if created {
		d.Logger.Info().Str("root", d.Env.Paths.Root).Msg("environment bootstrapped")
	}

	if globals.NoBackup || !d.Settings.Backup.OnStart || skipsBackup(cmd) {
		return nil
	}
	// Rotation failures are logged and never block the command.
	err = ui.Spin(d.Progress, "Backing up configuration...", func() error {
		_, err := d.Backup.Rotate(ctx)
		return err
	})
	if err != nil {
		d.Logger.Warn().Err(err).Msg("backup rotation failed")
	}
	return nil
}

func skipsBackup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[annotationSkipBackup]; ok {
			return true
		}
	}
	return false
}

// reportError prints err for the operator. Validation messages are shown
// verbatim; other failures carry their category.
func reportError(w io.Writer, err error) {
	theme := ui.NewTheme(ui.ThemeConfig{NoColor: true})
	if deps != nil {
		theme = deps.Theme
		deps.Logger.Error().Err(err).Str("category", string(engine.Classify(err))).Msg("command failed")
	}
	p := ui.NewPrinter(theme, w)

	cat := engine.Classify(err)
	switch {
	case cat == engine.CategoryCanceled || errors.Is(err, ui.ErrCancelled):
		p.Warnf("Cancelled.")
	case cat == engine.CategoryValidation,
		errors.Is(err, ireporter.ErrNoMachine),
		errors.Is(err, ireporter.ErrNoConfig):
		p.Warnf("%s", err.Error())
	default:
		p.Errorf("Error (%s): %v", cat, err)
	}
}
