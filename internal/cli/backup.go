package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/backup"
	"github.com/kim-interface/kimm/internal/ui"
)

var backupCmd = &cobra.Command{
	Use:         "backup",
	Short:       "Rotate, list and restore configuration backups",
	GroupID:     "maintenance",
	Annotations: map[string]string{annotationSkipBackup: "true"},
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Archive the latest backup and copy the configuration into latest",
	Args:  cobra.NoArgs,
	RunE:  runBackupRun,
}

var backupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the past snapshots, oldest first",
	Args:    cobra.NoArgs,
	RunE:    runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [SNAPSHOT]",
	Short: "Replace the configuration with a past snapshot",
	Long: `Replace the configuration with a past snapshot.

The current configuration is rotated into the archive first, so a restore
can itself be undone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBackupRestore,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupRunCmd, backupListCmd, backupRestoreCmd)

	backupRestoreCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func runBackupRun(cmd *cobra.Command, _ []string) error {
	var res backup.Result
	err := ui.Spin(deps.Progress, "Backing up configuration...", func() error {
		var err error
		res, err = deps.Backup.Rotate(cmd.Context())
		return err
	})
	if err != nil {
		return err
	}

	p := printer(cmd)
	switch {
	case res.Archived != "":
		p.Successf("Archived snapshot %s.", res.Archived)
	case res.Skipped:
		p.Successf("Latest backup was already archived.")
	default:
		p.Successf("Latest backup created.")
	}
	for _, name := range res.Pruned {
		p.Printf("Pruned %s", name)
	}
	if res.Mirrored > 0 {
		p.Printf("Mirrored %s", plural(res.Mirrored, "file"))
	}
	p.Field("Snapshots", fmt.Sprintf("%d of %d", res.Retained, deps.Backup.Retention()))
	return nil
}

func runBackupList(cmd *cobra.Command, _ []string) error {
	snaps, err := deps.Backup.List()
	if err != nil {
		return err
	}
	rows := make([]string, len(snaps))
	for i, s := range snaps {
		rows[i] = fmt.Sprintf("%s  (%s)", s.Name, s.Created.Local().Format(time.DateTime))
	}
	p := printer(cmd)
	p.Heading(fmt.Sprintf("Past snapshots (%d of %d)", len(snaps), deps.Backup.Retention()))
	p.List(rows)
	return nil
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	snaps, err := deps.Backup.List()
	if err != nil {
		return err
	}
	names := make([]string, len(snaps))
	for i, s := range snaps {
		names[len(snaps)-1-i] = s.Name
	}
	name, err := argOrPick(args, "Snapshot", names)
	if err != nil {
		return err
	}
	if err := confirm(cmd, "Replace the configuration with snapshot "+name+"?"); err != nil {
		return err
	}
	err = ui.Spin(deps.Progress, "Restoring "+name+"...", func() error {
		return deps.Backup.Restore(cmd.Context(), name)
	})
	if err != nil {
		return err
	}
	printer(cmd).Successf("Configuration restored from %s.", name)
	return nil
}
