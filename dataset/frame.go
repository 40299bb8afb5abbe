package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Frame is a header-indexed CSV table held in memory. It is immutable after
// Load returns.
type Frame struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]string
}

func newFrame(name string, header []string, rows [][]string) (*Frame, error) {
	index := make(map[string]int, len(header))
	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if _, dup := index[h]; dup {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		index[h] = i
		columns[i] = h
	}
	return &Frame{name: name, columns: columns, index: index, rows: rows}, nil
}

// Name returns the dataset name the frame was loaded under.
func (f *Frame) Name() string { return f.name }

// Columns returns the header in file order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// Len returns the number of data rows.
func (f *Frame) Len() int { return len(f.rows) }

// HasColumn reports whether the header contains name.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Value returns the trimmed cell at row i of column name.
func (f *Frame) Value(i int, name string) (string, error) {
	col, ok := f.index[name]
	if !ok {
		return "", &ColumnError{Frame: f.name, Column: name}
	}
	if i < 0 || i >= len(f.rows) {
		return "", fmt.Errorf("row %d out of range [0,%d)", i, len(f.rows))
	}
	return strings.TrimSpace(f.rows[i][col]), nil
}

// Strings returns a copy of a column.
func (f *Frame) Strings(name string) ([]string, error) {
	col, ok := f.index[name]
	if !ok {
		return nil, &ColumnError{Frame: f.name, Column: name}
	}
	out := make([]string, len(f.rows))
	for i, row := range f.rows {
		out[i] = strings.TrimSpace(row[col])
	}
	return out, nil
}

// Floats returns a column parsed as float64. Empty or non-numeric cells
// become NaN.
func (f *Frame) Floats(name string) ([]float64, error) {
	values, err := f.Strings(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = ParseFloat(v)
	}
	return out, nil
}

// IsNumeric reports whether every non-empty cell of the column parses with
// ParseFloat and at least one does.
func (f *Frame) IsNumeric(name string) bool {
	values, err := f.Strings(name)
	if err != nil {
		return false
	}
	seen := false
	for _, v := range values {
		if v == "" {
			continue
		}
		if math.IsNaN(ParseFloat(v)) {
			return false
		}
		seen = true
	}
	return seen
}

// Rows returns the raw records. Callers must not modify them.
func (f *Frame) Rows() [][]string { return f.rows }

// ParseFloat parses a cell; anything unparseable is NaN. Boolean cells as
// written by pandas map to 1 and 0.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "True", "true":
		return 1
	case "False", "false":
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// WithColumn returns a copy of the frame with a derived column appended, or
// replaced if the name already exists.
func (f *Frame) WithColumn(name string, values []string) (*Frame, error) {
	if len(values) != len(f.rows) {
		return nil, fmt.Errorf("column %q has %d values, frame has %d rows", name, len(values), len(f.rows))
	}
	header := f.Columns()
	col, exists := f.index[name]
	if !exists {
		header = append(header, name)
		col = len(header) - 1
	}
	rows := make([][]string, len(f.rows))
	for i, row := range f.rows {
		next := make([]string, len(header))
		copy(next, row)
		next[col] = values[i]
		rows[i] = next
	}
	return newFrame(f.name, header, rows)
}
