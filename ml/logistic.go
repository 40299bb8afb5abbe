package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

const TypeLogisticRegression = "logistic_regression"

// Scaler standardizes inputs as (x - mean) / scale before scoring.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LogisticRegression is an exported linear classifier with a sigmoid link.
type LogisticRegression struct {
	featureNames []string
	coefficients []float64
	intercept    float64
	scaler       *Scaler
}

func NewLogisticRegression(featureNames []string, coefficients []float64, intercept float64, scaler *Scaler) (*LogisticRegression, error) {
	if len(featureNames) == 0 {
		return nil, errors.New("feature names missing")
	}
	if len(coefficients) != len(featureNames) {
		return nil, fmt.Errorf("%d coefficients for %d features", len(coefficients), len(featureNames))
	}
	for i, c := range coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, errors.New("intercept is not finite")
	}
	if scaler != nil {
		if len(scaler.Mean) != len(featureNames) || len(scaler.Scale) != len(featureNames) {
			return nil, errors.New("scaler size does not match features")
		}
		for i, s := range scaler.Scale {
			if s == 0 {
				return nil, fmt.Errorf("scaler scale %d is zero", i)
			}
		}
	}
	return &LogisticRegression{
		featureNames: append([]string(nil), featureNames...),
		coefficients: append([]float64(nil), coefficients...),
		intercept:    intercept,
		scaler:       scaler,
	}, nil
}

func (lr *LogisticRegression) Type() string { return TypeLogisticRegression }

func (lr *LogisticRegression) FeatureNames() []string {
	return append([]string(nil), lr.featureNames...)
}

// Predict returns 1 when the decision function is positive.
func (lr *LogisticRegression) Predict(features []float64) (int, error) {
	z, err := lr.decision(features)
	if err != nil {
		return 0, err
	}
	if z > 0 {
		return int(AtRisk), nil
	}
	return int(NotAtRisk), nil
}

// PredictProba returns the probability of the at-risk class.
func (lr *LogisticRegression) PredictProba(features []float64) (float64, error) {
	z, err := lr.decision(features)
	if err != nil {
		return 0, err
	}
	return sigmoid(z), nil
}

func (lr *LogisticRegression) decision(features []float64) (float64, error) {
	if len(features) != len(lr.coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(lr.coefficients), len(features))
	}
	z := lr.intercept
	for i, x := range features {
		if lr.scaler != nil {
			x = (x - lr.scaler.Mean[i]) / lr.scaler.Scale[i]
		}
		z += lr.coefficients[i] * x
	}
	if math.IsNaN(z) {
		return 0, errors.New("decision function is NaN")
	}
	return z, nil
}

// Save writes the model in the artifact format LoadModel reads, for fixtures
// and hand-built artifacts.
func (lr *LogisticRegression) Save(path string) error {
	payload, err := json.MarshalIndent(artifact{
		Type:         TypeLogisticRegression,
		FeatureNames: lr.featureNames,
		Coefficients: lr.coefficients,
		Intercept:    lr.intercept,
		Scaler:       lr.scaler,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}
