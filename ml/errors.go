package ml

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfRange is returned when a trait value falls outside the form bounds.
var ErrOutOfRange = errors.New("value out of range")

// InvalidCategoryError reports a categorical label with no encoding table entry.
type InvalidCategoryError struct {
	Field string
	Label string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("invalid %s category %q", e.Field, e.Label)
}

// SchemaMismatchError reports a feature row whose columns differ from the
// columns the model was trained on.
type SchemaMismatchError struct {
	Expected []string
	Got      []string
}

func (e *SchemaMismatchError) Error() string {
	if len(e.Expected) != len(e.Got) {
		return fmt.Sprintf("schema mismatch: model expects %d features, got %d", len(e.Expected), len(e.Got))
	}
	for i := range e.Expected {
		if e.Expected[i] != e.Got[i] {
			return fmt.Sprintf("schema mismatch at position %d: model expects %q, got %q", i, e.Expected[i], e.Got[i])
		}
	}
	return "schema mismatch: [" + strings.Join(e.Got, ", ") + "]"
}

// LoadError wraps any failure to read or interpret a model artifact.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// checkSchema compares column lists by count, name and position.
func checkSchema(expected, got []string) error {
	if len(expected) != len(got) {
		return &SchemaMismatchError{Expected: expected, Got: got}
	}
	for i := range expected {
		if expected[i] != got[i] {
			return &SchemaMismatchError{Expected: expected, Got: got}
		}
	}
	return nil
}
