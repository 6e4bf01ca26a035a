package registry

import (
	"strings"

	apperrors "ruccli/internal/errors"
)

// Table is a registry loaded into memory: a header and rectangular rows of
// text cells. Every cell is kept as text, classification codes included.
type Table struct {
	Header    []string
	Rows      [][]string
	Source    string
	Delimiter string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of the named column. An exact match wins; otherwise
// the header is compared trimmed and case-insensitively.
func (t *Table) Column(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i, nil
		}
	}
	return -1, apperrors.NewValidationError("column "+name+" not found").
		WithContext("column", name).
		WithContext("header", t.Header)
}

// Value returns the cell at row, col or "" when the row is short.
func (t *Table) Value(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Header:    append([]string(nil), t.Header...),
		Rows:      make([][]string, len(t.Rows)),
		Source:    t.Source,
		Delimiter: t.Delimiter,
	}
	for i, r := range t.Rows {
		c.Rows[i] = append([]string(nil), r...)
	}
	return c
}

// pad extends short rows to the header width; xlsx rows drop trailing blanks.
func (t *Table) pad() {
	width := len(t.Header)
	for i, r := range t.Rows {
		if len(r) < width {
			t.Rows[i] = append(r, make([]string, width-len(r))...)
		}
	}
}
