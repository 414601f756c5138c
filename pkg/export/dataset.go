package export

// SummaryItem is one label/value line printed above the records table.
type SummaryItem struct {
	Label string
	Value string
}

// Dataset defines tabular export content with an optional summary block.
type Dataset struct {
	Title      string
	Summary    []SummaryItem
	TableTitle string
	Headers    []string
	Rows       []map[string]string
}

// Renderer turns a dataset into a file payload.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}
