package ml

import (
	"fmt"
)

// Schema names one of the feature layouts a trained model can expect.
type Schema string

const (
	// SchemaBasic is the six biological traits plus temperature change.
	SchemaBasic Schema = "basic"
	// SchemaExtended adds social code, recent average temperature and habitat code.
	SchemaExtended Schema = "extended"
)

// Column names as they appear in the training data.
const (
	ColHeight        = "Height (cm)"
	ColWeight        = "Weight (kg)"
	ColLifespan      = "Lifespan (years)"
	ColSpeed         = "Average Speed (km/h)"
	ColGestation     = "Gestation Period (days)"
	ColOffspring     = "Offspring per Birth"
	ColSocialEncoded = "Social Encoded"
	ColTempChange    = "temp_change"
	ColAvgTempRecent = "avg_temp_recent"
	ColHabitat       = "Habitat Encoded"
)

// ParseSchema validates a configured schema name.
func ParseSchema(name string) (Schema, error) {
	switch Schema(name) {
	case SchemaBasic, SchemaExtended:
		return Schema(name), nil
	default:
		return "", fmt.Errorf("unknown feature schema %q (want %q or %q)", name, SchemaBasic, SchemaExtended)
	}
}

// FeatureNames returns the ordered column names for a schema.
func FeatureNames(schema Schema) []string {
	switch schema {
	case SchemaBasic:
		return []string{
			ColHeight,
			ColWeight,
			ColLifespan,
			ColSpeed,
			ColGestation,
			ColOffspring,
			ColTempChange,
		}
	case SchemaExtended:
		return []string{
			ColHeight,
			ColWeight,
			ColLifespan,
			ColSpeed,
			ColGestation,
			ColOffspring,
			ColSocialEncoded,
			ColTempChange,
			ColAvgTempRecent,
			ColHabitat,
		}
	default:
		return nil
	}
}

// FeatureRow is a single model input row with fixed column order.
type FeatureRow interface {
	Schema() Schema
	Names() []string
	Values() []float64
}

// Traits are the biological inputs shared by both schemas.
type Traits struct {
	Height    float64 `json:"height"`
	Weight    float64 `json:"weight"`
	Lifespan  float64 `json:"lifespan"`
	Speed     float64 `json:"speed"`
	Gestation float64 `json:"gestation"`
	Offspring float64 `json:"offspring"`
}

// BasicFeatures is the seven column layout.
type BasicFeatures struct {
	Traits
	TempChange float64 `json:"temp_change"`
}

func (f BasicFeatures) Schema() Schema { return SchemaBasic }

func (f BasicFeatures) Names() []string { return FeatureNames(SchemaBasic) }

func (f BasicFeatures) Values() []float64 {
	return []float64{
		f.Height,
		f.Weight,
		f.Lifespan,
		f.Speed,
		f.Gestation,
		f.Offspring,
		f.TempChange,
	}
}

// ExtendedFeatures is the ten column layout.
type ExtendedFeatures struct {
	Traits
	SocialCode    int     `json:"social_encoded"`
	TempChange    float64 `json:"temp_change"`
	AvgTempRecent float64 `json:"avg_temp_recent"`
	HabitatCode   int     `json:"habitat_encoded"`
}

func (f ExtendedFeatures) Schema() Schema { return SchemaExtended }

func (f ExtendedFeatures) Names() []string { return FeatureNames(SchemaExtended) }

func (f ExtendedFeatures) Values() []float64 {
	return []float64{
		f.Height,
		f.Weight,
		f.Lifespan,
		f.Speed,
		f.Gestation,
		f.Offspring,
		float64(f.SocialCode),
		f.TempChange,
		f.AvgTempRecent,
		float64(f.HabitatCode),
	}
}

// FeatureMap renders a row as column name to value, for logs and API output.
func FeatureMap(row FeatureRow) map[string]float64 {
	names := row.Names()
	values := row.Values()
	result := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(values) {
			result[name] = values[i]
		}
	}
	return result
}
