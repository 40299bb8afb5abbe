package dataset

import "fmt"

// LoadError reports a dataset that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ColumnError reports a column missing from a frame.
type ColumnError struct {
	Frame  string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("dataset %s has no column %q", e.Frame, e.Column)
}
