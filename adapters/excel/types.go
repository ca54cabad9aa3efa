package excel

// RawData is a parsed file before any typing: the header row and the data
// rows, each padded to the header width.
type RawData struct {
	Headers []string   // Column headers as written in the file
	Rows    [][]string // Data rows, positional
}

// ColumnCount returns the number of header cells
func (d *RawData) ColumnCount() int {
	return len(d.Headers)
}

// Column returns the cells of column j in row order
func (d *RawData) Column(j int) []string {
	cells := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		cells[i] = row[j]
	}
	return cells
}
