// Package table holds the format-agnostic tabular data exchanged with the
// outside world: one header row plus string cells, read from and written to
// CSV files, Excel workbooks and Google Sheets.
package table

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyTable is returned when a source has no header row.
	ErrEmptyTable = errors.New("table has no header row")

	// ErrUnsupportedFormat is returned for file extensions without a reader.
	ErrUnsupportedFormat = errors.New("unsupported table format")
)

// Table is a header row plus data rows. Rows may be shorter than Headers;
// missing cells read as empty strings.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// New creates an empty table with the given headers
func New(name string, headers ...string) *Table {
	return &Table{Name: name, Headers: headers}
}

// FromRecords builds a table whose first non-blank record is the header row.
// Trailing blank rows are dropped, blank rows in between are kept so that row
// positions keep matching the source.
func FromRecords(name string, records [][]string) (*Table, error) {
	start := 0
	for start < len(records) && isBlank(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, ErrEmptyTable
	}

	headers := make([]string, len(records[start]))
	for i, h := range records[start] {
		headers[i] = strings.TrimSpace(h)
	}
	// Spreadsheets often carry formatted but empty trailing header cells
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}

	rows := records[start+1:]
	end := len(rows)
	for end > 0 && isBlank(rows[end-1]) {
		end--
	}

	return &Table{Name: name, Headers: headers, Rows: rows[:end]}, nil
}

// Append adds a data row
func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Cell returns the trimmed cell at row, col or "" when out of range
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Record returns row padded or cut to the header width
func (t *Table) Record(row int) []string {
	out := make([]string, len(t.Headers))
	for col := range out {
		out[col] = t.Cell(row, col)
	}
	return out
}

// IsBlankRow reports whether every cell of the row is empty
func (t *Table) IsBlankRow(row int) bool {
	if row < 0 || row >= len(t.Rows) {
		return true
	}
	return isBlank(t.Rows[row])
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
