package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/defs"
)

var notesCmd = &cobra.Command{
	Use:     "notes",
	Short:   "Show the release notes",
	GroupID: "maintenance",
	Annotations: map[string]string{
		annotationSkipBackup: "true",
	},
	Args: cobra.NoArgs,
	RunE: runNotes,
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.Flags().Int("width", 0, "word wrap width (default 80)")
}

// releaseNotes reads CHANGELOG.md of the environment root, or falls back to
// the version of this build.
func releaseNotes() (string, error) {
	data, err := os.ReadFile(filepath.Join(deps.Env.Paths.Root, defs.ReleaseNotesMD))
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read release notes: %w", err)
	}
	rel := deps.Settings.Release
	return fmt.Sprintf("# KIM Interface Manager\n\nVersion **%s**, released %s.\n", rel.Version, rel.VersionDate), nil
}

func runNotes(cmd *cobra.Command, _ []string) error {
	md, err := releaseNotes()
	if err != nil {
		return err
	}
	out, err := deps.Theme.RenderMarkdown(md, getIntFlag(cmd, "width"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
