// Package export renders the catalogue as a mapping workbook and a single
// Machine as a printable mapping sheet.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/kim-interface/kimm/internal/defs"
	"github.com/kim-interface/kimm/internal/fsutil"
	"github.com/kim-interface/kimm/internal/metrics"
	"github.com/kim-interface/kimm/pkg/models"
)

// Formats.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// Workbook sheet names.
const (
	SheetModels   = "Models"
	SheetMachines = "Machines"
	SheetMappings = "Mappings"
)

// Exporter renders exports and counts them.
type Exporter struct {
	metrics *metrics.Recorder
}

// New returns an Exporter. rec may be nil.
func New(rec *metrics.Recorder) *Exporter {
	return &Exporter{metrics: rec}
}

// Workbook renders the catalogue as an xlsx workbook.
func (e *Exporter) Workbook(cat models.Catalogue) ([]byte, error) {
	data, err := BuildWorkbook(cat)
	e.record(FormatXLSX, err)
	return data, err
}

// Sheet renders one Machine as a pdf.
func (e *Exporter) Sheet(m models.Machine, timestamp string) ([]byte, error) {
	data, err := BuildSheet(m, timestamp)
	e.record(FormatPDF, err)
	return data, err
}

// Save writes an export atomically.
func (e *Exporter) Save(path string, data []byte) error {
	if err := fsutil.AtomicWrite(path, data, defs.FilePerm); err != nil {
		return fmt.Errorf("save export: %w", err)
	}
	return nil
}

func (e *Exporter) record(format string, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	e.metrics.Export(format, result)
}

// BuildWorkbook renders a Models, a Machines and a Mappings sheet.
func BuildWorkbook(cat models.Catalogue) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetModels); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetMachines, SheetMappings} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	sheets := map[string][][]any{
		SheetModels:   {{"Model", "Base Information", "Machines"}},
		SheetMachines: {{"Model", "Machine", "Measurements", "Configurations"}},
		SheetMappings: {{"Model", "Machine", "Configuration", "Item", "Sheet", "Cluster", "Type", "Value"}},
	}
	for _, model := range cat.Models {
		sheets[SheetModels] = append(sheets[SheetModels], []any{
			model.Name,
			strings.Join(model.BaseInformation, ", "),
			len(model.Machines),
		})
		for _, mc := range model.Machines {
			sheets[SheetMachines] = append(sheets[SheetMachines], []any{
				model.Name,
				mc.Name,
				strings.Join(mc.Measurements, ", "),
				len(mc.MappingConfigurations),
			})
			for _, cfg := range mc.MappingConfigurations {
				for _, fm := range cfg.Configuration {
					sheets[SheetMappings] = append(sheets[SheetMappings], []any{
						model.Name, mc.Name, cfg.ID, fm.Item, fm.Sheet, fm.Cluster, string(fm.Type), fm.Value,
					})
				}
			}
		}
	}

	for name, rows := range sheets {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return nil, fmt.Errorf("write %s row %d: %w", name, i+1, err)
			}
		}
		if err := f.SetRowStyle(name, 1, 1, bold); err != nil {
			return nil, err
		}
		if err := f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSheet renders the Mapping Configurations of one Machine.
func BuildSheet(m models.Machine, timestamp string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, tr("KIM Interface Mapping Sheet"))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Model: %s", m.Model)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Machine: %s", m.Name)))
	pdf.Ln(5)
	if timestamp != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Saved: %s", timestamp)))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, tr(fmt.Sprintf("Measurements: %s", strings.Join(m.Measurements, ", "))))
	pdf.Ln(8)

	if len(m.MappingConfigurations) == 0 {
		pdf.Cell(0, 6, "No mapping configurations.")
		pdf.Ln(5)
	}
	for _, cfg := range m.MappingConfigurations {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 7, tr(fmt.Sprintf("Configuration %s", cfg.ID)))
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(80, 6, "Item", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Sheet", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Cluster", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Type", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, fm := range cfg.Configuration {
			pdf.CellFormat(80, 6, tr(fm.Item), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%d", fm.Sheet), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%d", fm.Cluster), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, string(fm.Type), "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
