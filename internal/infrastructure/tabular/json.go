package tabular

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kirillkom/ad-autonamer/internal/core/export"
)

type jsonDocument struct {
	Rows       []export.Row `json:"rows"`
	Duplicates []string     `json:"duplicates"`
}

type JSONEncoder struct{}

func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{}
}

func (JSONEncoder) Format() string      { return "json" }
func (JSONEncoder) ContentType() string { return "application/json" }
func (JSONEncoder) Extension() string   { return "json" }

func (JSONEncoder) Encode(w io.Writer, rows []export.Row, duplicates []string) error {
	doc := jsonDocument{Rows: rows, Duplicates: duplicates}
	if doc.Rows == nil {
		doc.Rows = []export.Row{}
	}
	if doc.Duplicates == nil {
		doc.Duplicates = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}
