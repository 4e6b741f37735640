package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Document is a printable statement: a heading, free text lines, a table and
// labelled summary rows.
type Document struct {
	Title   string
	Lines   []string
	Headers []string
	Rows    [][]string
	Summary []SummaryRow
}

// SummaryRow is a label/value pair printed beneath the table.
type SummaryRow struct {
	Label string
	Value string
}

// CSVExporter renders documents as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the table followed by a blank record and the summary rows.
func (e *CSVExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(doc.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range doc.Rows {
		record := make([]string, len(doc.Headers))
		copy(record, row)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	if len(doc.Summary) > 0 {
		if err := writer.Write(make([]string, len(doc.Headers))); err != nil {
			return nil, fmt.Errorf("write csv separator: %w", err)
		}
		for _, row := range doc.Summary {
			record := make([]string, len(doc.Headers))
			record[0] = row.Label
			if len(record) > 1 {
				record[len(record)-1] = row.Value
			} else {
				record[0] = row.Label + ": " + row.Value
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv summary: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
