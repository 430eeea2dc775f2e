// Package table holds the in-memory tabular form shared by the parsers, the
// mapping core and the importer.
package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRaggedColumns   = errors.New("columns have different row counts")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrEmptyColumnName = errors.New("empty column name")
)

// Column is a named, ordered sequence of raw values. A nil value is an
// explicit null; other values are strings or numbers taken verbatim.
type Column struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// Table is an ordered list of columns sharing one row count.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New builds a table from columns. Column names must be unique and non-blank,
// and every column must have the same number of values.
func New(columns ...Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, c := range columns {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("column %d: %w", i, ErrEmptyColumnName)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("%q: %w", c.Name, ErrDuplicateColumn)
		}
		if i == 0 {
			t.rows = len(c.Values)
		} else if len(c.Values) != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d: %w", c.Name, len(c.Values), t.rows, ErrRaggedColumns)
		}
		t.index[c.Name] = i
		t.columns = append(t.columns, c)
	}

	return t, nil
}

// FromRows builds a table from a header and row-major string cells. Empty
// cells become nil. Rows shorter than the header are padded with nil; longer
// rows are truncated.
func FromRows(header []string, rows [][]string) (*Table, error) {
	columns := make([]Column, len(header))
	for i, h := range header {
		columns[i] = Column{Name: h, Values: make([]any, len(rows))}
	}
	for r, row := range rows {
		for c := range header {
			if c < len(row) && row[c] != "" {
				columns[c].Values[r] = row[c]
			}
		}
	}
	return New(columns...)
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return t.rows
}

// Len returns the number of columns.
func (t *Table) Len() int {
	return len(t.columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the column called name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Columns returns the columns in order. The slice is a copy; the value slices
// are shared.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for c, col := range t.columns {
		row[c] = col.Values[i]
	}
	return row
}

// Empty reports whether the table has no columns or no rows.
func (t *Table) Empty() bool {
	return len(t.columns) == 0 || t.rows == 0
}
