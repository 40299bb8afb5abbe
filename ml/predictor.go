package ml

import (
	"context"
	"fmt"
	"math"
)

// Prediction is the outcome of one submission.
type Prediction struct {
	Label  Label `json:"label"`
	AtRisk bool  `json:"at_risk"`
	// Probability is P(at risk), null when the model cannot estimate it.
	Probability *float64           `json:"probability"`
	Schema      Schema             `json:"schema"`
	Model       string             `json:"model"`
	Features    map[string]float64 `json:"features,omitempty"`
}

// Predictor runs one loaded model against rows of one schema.
type Predictor struct {
	model  MLModel
	proba  ProbabilityModel
	schema Schema
	names  []string
}

// NewPredictor checks that the model was trained on exactly the schema's
// columns before accepting it.
func NewPredictor(model MLModel, schema Schema) (*Predictor, error) {
	if model == nil {
		return nil, fmt.Errorf("model is nil")
	}
	names := FeatureNames(schema)
	if names == nil {
		return nil, fmt.Errorf("unknown feature schema %q", schema)
	}
	if err := checkSchema(model.FeatureNames(), names); err != nil {
		return nil, err
	}
	p := &Predictor{model: model, schema: schema, names: names}
	if proba, ok := model.(ProbabilityModel); ok {
		p.proba = proba
	}
	return p, nil
}

func (p *Predictor) Schema() Schema { return p.schema }

func (p *Predictor) ModelType() string { return p.model.Type() }

func (p *Predictor) FeatureNames() []string { return append([]string(nil), p.names...) }

// SupportsProbability reports whether predictions carry a probability.
func (p *Predictor) SupportsProbability() bool { return p.proba != nil }

// Predict scores a single row.
func (p *Predictor) Predict(row FeatureRow) (*Prediction, error) {
	if row == nil {
		return nil, &SchemaMismatchError{Expected: p.model.FeatureNames()}
	}
	if err := checkSchema(p.model.FeatureNames(), row.Names()); err != nil {
		return nil, err
	}
	values := row.Values()

	class, err := p.model.Predict(values)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if class != int(NotAtRisk) && class != int(AtRisk) {
		return nil, fmt.Errorf("predict: model returned label %d", class)
	}

	result := &Prediction{
		Label:    Label(class),
		AtRisk:   Label(class) == AtRisk,
		Schema:   row.Schema(),
		Model:    p.model.Type(),
		Features: FeatureMap(row),
	}
	if p.proba != nil {
		prob, err := p.proba.PredictProba(values)
		if err != nil {
			return nil, fmt.Errorf("predict probability: %w", err)
		}
		if math.IsNaN(prob) || prob < 0 || prob > 1 {
			return nil, fmt.Errorf("predict probability: %g outside [0,1]", prob)
		}
		result.Probability = &prob
	}
	return result, nil
}

// Service chains the encoder and predictor for one form submission.
type Service struct {
	encoder   *Encoder
	predictor *Predictor
}

// NewService rejects an encoder and predictor built for different schemas.
func NewService(encoder *Encoder, predictor *Predictor) (*Service, error) {
	if encoder.Schema() != predictor.Schema() {
		return nil, &SchemaMismatchError{
			Expected: predictor.FeatureNames(),
			Got:      FeatureNames(encoder.Schema()),
		}
	}
	return &Service{encoder: encoder, predictor: predictor}, nil
}

func (s *Service) Encoder() *Encoder { return s.encoder }

func (s *Service) Predictor() *Predictor { return s.predictor }

// Predict encodes the selection and runs inference.
func (s *Service) Predict(ctx context.Context, sel Selection) (*Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := s.encoder.Encode(sel)
	if err != nil {
		return nil, err
	}
	return s.predictor.Predict(row)
}
