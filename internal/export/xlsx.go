// Package export writes collections to spreadsheet files.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ettle/strcase"
	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/qurancms/internal/content"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// Columns returns the document keys exported for schema: the form fields in
// form order followed by the timestamp fields.
func Columns(schema *content.Schema) []string {
	cols := make([]string, 0, len(schema.Fields)+2)
	seen := make(map[string]bool)
	for _, f := range schema.Fields {
		cols = append(cols, f.Key)
		seen[f.Key] = true
	}
	for _, stamps := range [][]string{schema.Stamps(false), schema.Stamps(true)} {
		for _, key := range stamps {
			if !seen[key] {
				cols = append(cols, key)
				seen[key] = true
			}
		}
	}
	return cols
}

// Header returns the header row: "ID", then field labels, then timestamp keys
// in title case.
func Header(schema *content.Schema) []string {
	header := []string{"ID"}
	for _, key := range Columns(schema) {
		if f, ok := schema.Field(key); ok {
			header = append(header, f.Label)
			continue
		}
		header = append(header, strcase.ToCase(key, strcase.TitleCase, ' '))
	}
	return header
}

// WriteXLSX writes docs as one worksheet named after the schema's plural,
// keeping the given order.
func WriteXLSX(w io.Writer, schema *content.Schema, docs []types.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := schema.Plural
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := Header(schema)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	cols := Columns(schema)
	for i, doc := range docs {
		row := make([]any, 0, len(cols)+1)
		row = append(row, doc.ID)
		for _, key := range cols {
			row = append(row, cellValue(doc.Data[key]))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellValue keeps numbers numeric and renders everything else as text.
func cellValue(v any) any {
	switch x := v.(type) {
	case float64, int, int64:
		return x
	case json.Number:
		if n, err := x.Float64(); err == nil {
			return n
		}
	}
	return types.FormatValue(v)
}
