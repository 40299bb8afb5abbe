package ml

import (
	"fmt"
)

// Selection is one form submission before encoding.
type Selection struct {
	Traits
	Social  string `json:"social_structure"`
	Region  string `json:"region"`
	Habitat string `json:"habitat"`
	// TempChange is only read by the basic schema when Region is empty.
	TempChange *float64 `json:"temp_change,omitempty"`
}

// Encoder turns selections into feature rows for a single schema.
type Encoder struct {
	schema  Schema
	tables  Tables
	social  map[string]int
	habitat map[string]int
	regions map[string]RegionClimate
}

// NewEncoder indexes the tables for the given schema. Tables with repeated
// labels or repeated codes are rejected.
func NewEncoder(tables Tables, schema Schema) (*Encoder, error) {
	if _, err := ParseSchema(string(schema)); err != nil {
		return nil, err
	}
	tables = tables.Clone()

	social, err := indexCodes("social structure", tables.Social)
	if err != nil {
		return nil, err
	}
	habitat, err := indexCodes("habitat", tables.Habitat)
	if err != nil {
		return nil, err
	}
	regions := make(map[string]RegionClimate, len(tables.Regions))
	for _, r := range tables.Regions {
		if _, dup := regions[r.Label]; dup {
			return nil, fmt.Errorf("duplicate region label %q", r.Label)
		}
		regions[r.Label] = r.Climate
	}

	if len(regions) == 0 {
		return nil, fmt.Errorf("region table is empty")
	}
	if schema == SchemaExtended && (len(social) == 0 || len(habitat) == 0) {
		return nil, fmt.Errorf("extended schema needs social structure and habitat tables")
	}

	return &Encoder{
		schema:  schema,
		tables:  tables,
		social:  social,
		habitat: habitat,
		regions: regions,
	}, nil
}

func indexCodes(field string, entries []CodeEntry) (map[string]int, error) {
	byLabel := make(map[string]int, len(entries))
	seen := make(map[int]string, len(entries))
	for _, e := range entries {
		if _, dup := byLabel[e.Label]; dup {
			return nil, fmt.Errorf("duplicate %s label %q", field, e.Label)
		}
		if other, dup := seen[e.Code]; dup {
			return nil, fmt.Errorf("%s labels %q and %q share code %d", field, other, e.Label, e.Code)
		}
		byLabel[e.Label] = e.Code
		seen[e.Code] = e.Label
	}
	return byLabel, nil
}

// Schema returns the layout this encoder produces.
func (e *Encoder) Schema() Schema {
	return e.schema
}

// Tables returns a copy of the encoding tables.
func (e *Encoder) Tables() Tables {
	return e.tables.Clone()
}

// SocialCode looks up a social structure label.
func (e *Encoder) SocialCode(label string) (int, error) {
	code, ok := e.social[label]
	if !ok {
		return 0, &InvalidCategoryError{Field: "social_structure", Label: label}
	}
	return code, nil
}

// HabitatCode looks up a habitat label.
func (e *Encoder) HabitatCode(label string) (int, error) {
	code, ok := e.habitat[label]
	if !ok {
		return 0, &InvalidCategoryError{Field: "habitat", Label: label}
	}
	return code, nil
}

// RegionClimate looks up the climate pair for a region.
func (e *Encoder) RegionClimate(label string) (RegionClimate, error) {
	climate, ok := e.regions[label]
	if !ok {
		return RegionClimate{}, &InvalidCategoryError{Field: "region", Label: label}
	}
	return climate, nil
}

// Encode validates the selection and builds the row for the encoder's schema.
func (e *Encoder) Encode(sel Selection) (FeatureRow, error) {
	if err := sel.Traits.Validate(); err != nil {
		return nil, err
	}

	switch e.schema {
	case SchemaBasic:
		tempChange, err := e.basicTempChange(sel)
		if err != nil {
			return nil, err
		}
		return BasicFeatures{Traits: sel.Traits, TempChange: tempChange}, nil

	case SchemaExtended:
		social, err := e.SocialCode(sel.Social)
		if err != nil {
			return nil, err
		}
		climate, err := e.RegionClimate(sel.Region)
		if err != nil {
			return nil, err
		}
		habitat, err := e.HabitatCode(sel.Habitat)
		if err != nil {
			return nil, err
		}
		return ExtendedFeatures{
			Traits:        sel.Traits,
			SocialCode:    social,
			TempChange:    climate.TempChange,
			AvgTempRecent: climate.AvgTempRecent,
			HabitatCode:   habitat,
		}, nil
	}
	return nil, fmt.Errorf("unknown feature schema %q", e.schema)
}

func (e *Encoder) basicTempChange(sel Selection) (float64, error) {
	if sel.Region != "" {
		climate, err := e.RegionClimate(sel.Region)
		if err != nil {
			return 0, err
		}
		return climate.TempChange, nil
	}
	if sel.TempChange == nil {
		return 0, &InvalidCategoryError{Field: "region", Label: ""}
	}
	if err := checkRange(TempChangeSpec(), *sel.TempChange); err != nil {
		return 0, err
	}
	return *sel.TempChange, nil
}
