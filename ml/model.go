package ml

// Label is the binary outcome of a prediction.
type Label int

const (
	NotAtRisk Label = 0
	AtRisk    Label = 1
)

func (l Label) String() string {
	if l == AtRisk {
		return "AT_RISK"
	}
	return "NOT_AT_RISK"
}

// MLModel is a loaded, pre-trained binary classifier.
type MLModel interface {
	Type() string
	// FeatureNames is the ordered column list the model was trained on.
	FeatureNames() []string
	Predict(features []float64) (int, error)
}

// ProbabilityModel is implemented by models that estimate P(at risk).
type ProbabilityModel interface {
	PredictProba(features []float64) (float64, error)
}
