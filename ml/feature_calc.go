package ml

import (
	"fmt"
	"math"
)

// TraitSpec describes one bounded numeric input of the prediction form.
type TraitSpec struct {
	Column  string  `json:"column"`
	Field   string  `json:"field"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

// TraitSpecs lists the form inputs in display order.
func TraitSpecs() []TraitSpec {
	return []TraitSpec{
		{Column: ColHeight, Field: "height", Label: "Height (cm)", Min: 1, Max: 500, Default: 100, Step: 1},
		{Column: ColWeight, Field: "weight", Label: "Weight (kg)", Min: 1, Max: 5000, Default: 100, Step: 1},
		{Column: ColLifespan, Field: "lifespan", Label: "Lifespan (years)", Min: 1, Max: 150, Default: 20, Step: 1},
		{Column: ColSpeed, Field: "speed", Label: "Average Speed (km/h)", Min: 1, Max: 120, Default: 20, Step: 1},
		{Column: ColGestation, Field: "gestation", Label: "Gestation Period (days)", Min: 10, Max: 1000, Default: 100, Step: 1},
		{Column: ColOffspring, Field: "offspring", Label: "Offspring per Birth", Min: 1, Max: 20, Default: 1, Step: 1},
	}
}

// TempChangeSpec is the manual temperature change input of the basic form.
func TempChangeSpec() TraitSpec {
	return TraitSpec{Column: ColTempChange, Field: "temp_change", Label: "Avg Temp Change in Habitat (°C)", Min: 0, Max: 4, Default: 1.5, Step: 0.01}
}

// DefaultTraits returns the form defaults.
func DefaultTraits() Traits {
	return Traits{Height: 100, Weight: 100, Lifespan: 20, Speed: 20, Gestation: 100, Offspring: 1}
}

// Get returns the trait value for a form field name.
func (t Traits) Get(field string) (float64, bool) {
	switch field {
	case "height":
		return t.Height, true
	case "weight":
		return t.Weight, true
	case "lifespan":
		return t.Lifespan, true
	case "speed":
		return t.Speed, true
	case "gestation":
		return t.Gestation, true
	case "offspring":
		return t.Offspring, true
	}
	return 0, false
}

// Set assigns a trait by form field name.
func (t *Traits) Set(field string, value float64) bool {
	switch field {
	case "height":
		t.Height = value
	case "weight":
		t.Weight = value
	case "lifespan":
		t.Lifespan = value
	case "speed":
		t.Speed = value
	case "gestation":
		t.Gestation = value
	case "offspring":
		t.Offspring = value
	default:
		return false
	}
	return true
}

// Validate checks every trait against its form bounds.
func (t Traits) Validate() error {
	for _, spec := range TraitSpecs() {
		value, _ := t.Get(spec.Field)
		if err := checkRange(spec, value); err != nil {
			return err
		}
	}
	return nil
}

func checkRange(spec TraitSpec, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < spec.Min || value > spec.Max {
		return fmt.Errorf("%w: %s=%g (allowed %g-%g)", ErrOutOfRange, spec.Field, value, spec.Min, spec.Max)
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
