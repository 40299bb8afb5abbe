package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// artifact is the on-disk JSON envelope written by the training notebooks.
type artifact struct {
	Type         string     `json:"type"`
	FeatureNames []string   `json:"feature_names"`
	Coefficients []float64  `json:"coefficients,omitempty"`
	Intercept    float64    `json:"intercept,omitempty"`
	Scaler       *Scaler    `json:"scaler,omitempty"`
	Nodes        []TreeNode `json:"nodes,omitempty"`
}

// LoadModel reads a model artifact. An empty modelType accepts whatever type
// the artifact declares; otherwise the two must agree.
func LoadModel(modelType, path string) (MLModel, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	if a.Type == "" {
		a.Type = modelType
	}
	if modelType != "" && a.Type != modelType {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("artifact is %q, configured %q", a.Type, modelType)}
	}

	var model MLModel
	switch a.Type {
	case TypeDecisionTree:
		model, err = NewDecisionTree(a.FeatureNames, a.Nodes)
	case TypeLogisticRegression:
		model, err = NewLogisticRegression(a.FeatureNames, a.Coefficients, a.Intercept, a.Scaler)
	case "":
		err = errors.New("model type not declared")
	default:
		err = fmt.Errorf("unsupported model type %q", a.Type)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return model, nil
}
