package ml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestLoadModelRoundTrip(t *testing.T) {
	dir := t.TempDir()

	lrPath := filepath.Join(dir, "lr.json")
	if err := extendedLogistic(t).Save(lrPath); err != nil {
		t.Fatalf("Save: %v", err)
	}
	model, err := LoadModel(TypeLogisticRegression, lrPath)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if model.Type() != TypeLogisticRegression {
		t.Fatalf("unexpected type %q", model.Type())
	}
	if _, ok := model.(ProbabilityModel); !ok {
		t.Fatal("loaded logistic regression lost its probability output")
	}
	if _, err := NewPredictor(model, SchemaExtended); err != nil {
		t.Fatalf("NewPredictor: %v", err)
	}

	dtPath := filepath.Join(dir, "dt.json")
	if err := basicTree(t).Save(dtPath); err != nil {
		t.Fatalf("Save: %v", err)
	}
	model, err = LoadModel("", dtPath)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if model.Type() != TypeDecisionTree {
		t.Fatalf("unexpected type %q", model.Type())
	}
	label, err := model.Predict([]float64{100, 100, 20, 20, 100, 1, 1.5})
	if err != nil || label != 1 {
		t.Fatalf("Predict after load = (%d, %v), want (1, nil)", label, err)
	}
}

func TestLoadModelErrors(t *testing.T) {
	tests := []struct {
		name      string
		modelType string
		path      func(t *testing.T) string
	}{
		{"missing file", TypeLogisticRegression, func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "absent.json")
		}},
		{"bad json", TypeLogisticRegression, func(t *testing.T) string {
			return writeArtifact(t, `{"type": "logistic_regression",`)
		}},
		{"type mismatch", TypeDecisionTree, func(t *testing.T) string {
			return writeArtifact(t, `{"type":"logistic_regression","feature_names":["a"],"coefficients":[1]}`)
		}},
		{"unknown type", "", func(t *testing.T) string {
			return writeArtifact(t, `{"type":"random_forest","feature_names":["a"]}`)
		}},
		{"no type anywhere", "", func(t *testing.T) string {
			return writeArtifact(t, `{"feature_names":["a"],"coefficients":[1]}`)
		}},
		{"missing feature names", TypeLogisticRegression, func(t *testing.T) string {
			return writeArtifact(t, `{"type":"logistic_regression","coefficients":[1,2]}`)
		}},
		{"coefficient count", TypeLogisticRegression, func(t *testing.T) string {
			return writeArtifact(t, `{"type":"logistic_regression","feature_names":["a","b"],"coefficients":[1]}`)
		}},
		{"zero scale", TypeLogisticRegression, func(t *testing.T) string {
			return writeArtifact(t, `{"type":"logistic_regression","feature_names":["a"],"coefficients":[1],"scaler":{"mean":[0],"scale":[0]}}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadModel(tt.modelType, tt.path(t))
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected LoadError, got %v", err)
			}
		})
	}
}

func TestLoadModelMissingFileUnwraps(t *testing.T) {
	_, err := LoadModel(TypeDecisionTree, filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist in chain, got %v", err)
	}
}
