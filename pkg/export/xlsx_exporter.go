package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxSummarySheet = "Summary"
	xlsxRecordsSheet = "Records"
)

// XLSXExporter renders datasets into a workbook with summary and records sheets.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render produces the workbook bytes.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSummarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	idx, err := f.NewSheet(xlsxRecordsSheet)
	if err != nil {
		return nil, fmt.Errorf("create records sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	row := 1
	if data.Title != "" {
		if err := f.SetCellValue(xlsxSummarySheet, cell(1, row), data.Title); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(xlsxSummarySheet, cell(1, row), cell(1, row), headerStyle); err != nil {
			return nil, err
		}
		row++
	}
	for _, item := range data.Summary {
		if err := f.SetCellValue(xlsxSummarySheet, cell(1, row), item.Label); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(xlsxSummarySheet, cell(2, row), item.Value); err != nil {
			return nil, err
		}
		row++
	}
	if err := f.SetColWidth(xlsxSummarySheet, "A", "A", 28); err != nil {
		return nil, err
	}

	for i, header := range data.Headers {
		if err := f.SetCellValue(xlsxRecordsSheet, cell(i+1, 1), header); err != nil {
			return nil, err
		}
	}
	last := cell(len(data.Headers), 1)
	if err := f.SetCellStyle(xlsxRecordsSheet, cell(1, 1), last, headerStyle); err != nil {
		return nil, err
	}
	for r, values := range data.Rows {
		for c, value := range data.record(values) {
			if err := f.SetCellValue(xlsxRecordsSheet, cell(c+1, r+2), value); err != nil {
				return nil, err
			}
		}
	}
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
