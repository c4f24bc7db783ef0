package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kim-interface/kimm/internal/defs"
	"github.com/kim-interface/kimm/internal/export"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export the mapping catalogue as a workbook or a printable sheet",
	GroupID: "maintenance",
}

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "Write every Model, Machine and Field-Mapping to an xlsx workbook",
	Args:  cobra.NoArgs,
	RunE:  runExportXLSX,
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf [MACHINE]",
	Short: "Write the Mapping Configurations of one Machine to a pdf sheet",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExportPDF,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportXLSXCmd, exportPDFCmd)

	exportCmd.PersistentFlags().StringP("output", "o", "", "output file (default below the environment root)")
	exportPDFCmd.Flags().StringP("model", "m", "", "owning Model of the Machine")
}

// outputPath returns --output, or name below the environment root.
func outputPath(cmd *cobra.Command, name string) (string, error) {
	path := getStringFlag(cmd, "output")
	if path == "" {
		path = filepath.Join(deps.Env.Paths.Root, name)
	}
	if err := os.MkdirAll(filepath.Dir(path), defs.DirPerm); err != nil {
		return "", err
	}
	return path, nil
}

func runExportXLSX(cmd *cobra.Command, _ []string) error {
	cat, err := deps.Engine.Catalogue(cmd.Context())
	if err != nil {
		return err
	}
	data, err := deps.Exporter.Workbook(cat)
	if err != nil {
		return err
	}
	path, err := outputPath(cmd, "kim-mappings."+export.FormatXLSX)
	if err != nil {
		return err
	}
	if err := deps.Exporter.Save(path, data); err != nil {
		return err
	}
	printer(cmd).Successf("Workbook written to %s.", path)
	return nil
}

func runExportPDF(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	mc, err := pickMachine(cmd, args)
	if err != nil {
		return err
	}
	cat, err := deps.Engine.Catalogue(ctx)
	if err != nil {
		return err
	}
	data, err := deps.Exporter.Sheet(mc, cat.Timestamp)
	if err != nil {
		return err
	}
	name := strings.ReplaceAll(mc.Name, " ", "_") + "-mappings." + export.FormatPDF
	path, err := outputPath(cmd, name)
	if err != nil {
		return err
	}
	if err := deps.Exporter.Save(path, data); err != nil {
		return err
	}
	printer(cmd).Successf("Mapping sheet written to %s.", path)
	return nil
}
