package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:      "Attendance Report Summary",
		Summary:    []SummaryItem{{Label: "Total Sessions", Value: "2"}, {Label: "Average Attendance Rate", Value: "50%"}},
		TableTitle: "Detailed Attendance Records",
		Headers:    []string{"Session ID", "Student Name", "Status"},
		Rows: []map[string]string{
			{"Session ID": "7", "Student Name": "Asha Rao", "Status": "present"},
			{"Session ID": "7", "Student Name": "Ravi, Jr", "Status": "absent"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	expected := "Attendance Report Summary\n" +
		"Total Sessions,2\n" +
		"Average Attendance Rate,50%\n" +
		"\n" +
		"Detailed Attendance Records\n" +
		"Session ID,Student Name,Status\n" +
		"7,Asha Rao,present\n" +
		"7,\"Ravi, Jr\",absent\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(xlsxSummarySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Attendance Report Summary", title)

	header, err := f.GetCellValue(xlsxRecordsSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Student Name", header)

	status, err := f.GetCellValue(xlsxRecordsSheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "absent", status)
}
