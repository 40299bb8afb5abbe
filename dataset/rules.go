package dataset

import (
	"fmt"
	"math"
)

// Rule checks one record at load time. Rules never modify a record; a
// failing record is dropped and counted in the Report.
type Rule interface {
	Name() string
	Check(header, record []string) error
}

// Report 加载统计
type Report struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Rejected int            `json:"rejected"`
	Issues   map[string]int `json:"issues"`
}

func newReport() Report {
	return Report{Issues: make(map[string]int)}
}

func (r *Report) reject(rule string) {
	r.Issues[rule]++
}

// WidthRule rejects records whose field count differs from the header. Parse
// always applies it first.
type WidthRule struct{}

func (WidthRule) Name() string { return "width" }

func (WidthRule) Check(header, record []string) error {
	if len(record) != len(header) {
		return fmt.Errorf("record has %d fields, header has %d", len(record), len(header))
	}
	return nil
}

// NumericRule rejects records whose listed columns hold non-numeric text.
// Empty cells pass.
type NumericRule struct {
	Columns []string
}

func (NumericRule) Name() string { return "numeric" }

func (r NumericRule) Check(header, record []string) error {
	for _, col := range r.Columns {
		i := indexOf(header, col)
		if i < 0 || i >= len(record) {
			continue
		}
		v := record[i]
		if trimmed(v) == "" {
			continue
		}
		if math.IsNaN(ParseFloat(v)) {
			return fmt.Errorf("column %q: %q is not numeric", col, v)
		}
	}
	return nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if trimmed(h) == name {
			return i
		}
	}
	return -1
}
