package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders datasets into CSV bytes: summary block, blank line, table.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	write := func(record []string) error {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
		return nil
	}

	if data.Title != "" {
		if err := write([]string{data.Title}); err != nil {
			return nil, err
		}
	}
	for _, item := range data.Summary {
		if err := write([]string{item.Label, item.Value}); err != nil {
			return nil, err
		}
	}
	if data.Title != "" || len(data.Summary) > 0 {
		if err := write([]string{}); err != nil {
			return nil, err
		}
	}
	if data.TableTitle != "" {
		if err := write([]string{data.TableTitle}); err != nil {
			return nil, err
		}
	}
	if err := write(data.Headers); err != nil {
		return nil, err
	}
	for _, row := range data.Rows {
		if err := write(data.record(row)); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
