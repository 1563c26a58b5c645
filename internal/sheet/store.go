// Package sheet is the tabular store behind the journal: one sheet per
// concern (diet, each workout body part, cardio, memory, summary), a header
// row, and one record per row keyed by its first column.
package sheet

import (
	"context"
	"strings"
)

// Store is the narrow interface every backend implements. Row and column
// numbers are 1-based; row 1 is the header.
type Store interface {
	Rows(ctx context.Context, sheet string) (*Table, error)
	FindRow(ctx context.Context, sheet, key string) (*Row, error)
	UpdateCell(ctx context.Context, sheet string, row, col int, value string) error
	AppendRow(ctx context.Context, sheet string, values []string) (int, error)
	EnsureSheet(ctx context.Context, sheet string, header []string) error
}

// Table is a snapshot of one sheet.
type Table struct {
	Name   string
	Header []string
	Rows   []Row
}

// Row is one record with its sheet row number.
type Row struct {
	Number int
	Values []string
}

// Col returns the 1-based column of a header name, or 0 if absent.
func (t *Table) Col(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i + 1
		}
	}
	return 0
}

// Get returns the trimmed value of a named column, or "" when the column or cell is absent.
func (t *Table) Get(r Row, name string) string {
	col := t.Col(name)
	if col == 0 || col > len(r.Values) {
		return ""
	}
	return strings.TrimSpace(r.Values[col-1])
}

// Blank reports whether a named cell is empty.
func (t *Table) Blank(r Row, name string) bool {
	return t.Get(r, name) == ""
}

// NewTable builds a table from raw values where values[0] is the header.
func NewTable(name string, values [][]string) *Table {
	t := &Table{Name: name}
	if len(values) == 0 {
		return t
	}
	t.Header = append([]string(nil), values[0]...)
	for i, v := range values[1:] {
		t.Rows = append(t.Rows, Row{Number: i + 2, Values: append([]string(nil), v...)})
	}
	return t
}

// findInValues returns the first data row whose key column equals key.
func findInValues(values [][]string, key string) *Row {
	key = strings.TrimSpace(key)
	for i := 1; i < len(values); i++ {
		if len(values[i]) > 0 && strings.TrimSpace(values[i][0]) == key {
			return &Row{Number: i + 1, Values: append([]string(nil), values[i]...)}
		}
	}
	return nil
}
