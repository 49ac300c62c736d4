package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/ad-autonamer/internal/core/export"
)

const (
	exportSheet     = "Export"
	duplicatesSheet = "Duplicates"
)

// XLSXEncoder renders one Export sheet with a frozen header row and a
// Duplicates sheet listing filenames that collide.
type XLSXEncoder struct{}

func NewXLSXEncoder() *XLSXEncoder {
	return &XLSXEncoder{}
}

func (XLSXEncoder) Format() string { return "xlsx" }
func (XLSXEncoder) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSXEncoder) Extension() string { return "xlsx" }

func (XLSXEncoder) Encode(w io.Writer, rows []export.Row, duplicates []string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", closeErr)
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeExportSheet(f, rows); err != nil {
		return err
	}
	if err := writeDuplicatesSheet(f, duplicates); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeExportSheet(f *excelize.File, rows []export.Row) error {
	header := make([]any, len(export.Header))
	for i, h := range export.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(export.Header))
	if err != nil {
		return fmt.Errorf("resolve last column: %w", err)
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve row %d: %w", i, err)
		}
		values := []any{
			r.FileID, r.OldName, r.NewName, r.GroupID, r.GroupType, r.PlacementInferred,
			r.ConfidenceGroup, r.ConfidenceProduct, r.ConfidenceAngle, r.ConfidenceOffer,
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", r.FileID, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "F", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}

func writeDuplicatesSheet(f *excelize.File, duplicates []string) error {
	if _, err := f.NewSheet(duplicatesSheet); err != nil {
		return fmt.Errorf("create duplicates sheet: %w", err)
	}
	if err := f.SetCellValue(duplicatesSheet, "A1", "duplicate_filename"); err != nil {
		return fmt.Errorf("write duplicates header: %w", err)
	}
	for i, name := range duplicates {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve duplicate row %d: %w", i, err)
		}
		if err := f.SetCellValue(duplicatesSheet, cell, name); err != nil {
			return fmt.Errorf("write duplicate %s: %w", name, err)
		}
	}
	return nil
}
