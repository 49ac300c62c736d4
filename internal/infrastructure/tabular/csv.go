package tabular

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kirillkom/ad-autonamer/internal/core/export"
)

// CSVEncoder writes the export view with CRLF line endings, matching what
// spreadsheet tools and the legacy exporter emit.
type CSVEncoder struct{}

func NewCSVEncoder() *CSVEncoder {
	return &CSVEncoder{}
}

func (CSVEncoder) Format() string      { return "csv" }
func (CSVEncoder) ContentType() string { return "text/csv; charset=utf-8" }
func (CSVEncoder) Extension() string   { return "csv" }

func (CSVEncoder) Encode(w io.Writer, rows []export.Row, _ []string) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(export.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.Record()); err != nil {
			return fmt.Errorf("write csv row %s: %w", row.FileID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
