package ml

// RegionClimate is the climate pair derived from a region selection.
type RegionClimate struct {
	TempChange    float64 `json:"temp_change" yaml:"temp_change"`
	AvgTempRecent float64 `json:"avg_temp_recent" yaml:"avg_temp_recent"`
}

// CodeEntry maps a display label to the integer the model was trained with.
type CodeEntry struct {
	Label string `json:"label" yaml:"label"`
	Code  int    `json:"code" yaml:"code"`
}

// RegionEntry maps a region label to its climate pair.
type RegionEntry struct {
	Label   string        `json:"label" yaml:"label"`
	Climate RegionClimate `json:"climate" yaml:"climate"`
}

// Tables holds the categorical encodings in display order.
type Tables struct {
	Social  []CodeEntry   `json:"social" yaml:"social"`
	Habitat []CodeEntry   `json:"habitat" yaml:"habitat"`
	Regions []RegionEntry `json:"regions" yaml:"regions"`
}

// DefaultTables returns the encodings used when the models were trained.
// Each call returns a fresh copy.
func DefaultTables() Tables {
	return Tables{
		Social: []CodeEntry{
			{"Colony-based", 0},
			{"Eusocial", 1},
			{"Flocks", 2},
			{"Group-based", 3},
			{"Herd-based", 4},
			{"Pack-based", 5},
			{"Social groups", 6},
			{"Social pods", 7},
			{"Solitary", 8},
			{"Varies", 9},
		},
		Habitat: []CodeEntry{
			{"Wetlands", 0},
			{"Forests", 1},
			{"Grasslands", 2},
			{"Mountains", 3},
			{"Oceans", 4},
			{"Other", 5},
			{"Freshwater", 6},
			{"Tundra", 7},
			{"Deserts", 8},
		},
		Regions: []RegionEntry{
			{"Africa", RegionClimate{TempChange: 0.19, AvgTempRecent: 21.703}},
			{"Asia", RegionClimate{TempChange: 1.12, AvgTempRecent: 21.2}},
			{"Europe", RegionClimate{TempChange: 1.51, AvgTempRecent: 10.6}},
			{"Americas", RegionClimate{TempChange: 0.96, AvgTempRecent: 15.3}},
			{"Oceania", RegionClimate{TempChange: 1.18, AvgTempRecent: 22.5}},
			{"Arctic", RegionClimate{TempChange: 2.78, AvgTempRecent: -5.0}},
		},
	}
}

// Clone deep-copies the tables.
func (t Tables) Clone() Tables {
	return Tables{
		Social:  append([]CodeEntry(nil), t.Social...),
		Habitat: append([]CodeEntry(nil), t.Habitat...),
		Regions: append([]RegionEntry(nil), t.Regions...),
	}
}

// SocialLabels returns the social structure labels in display order.
func (t Tables) SocialLabels() []string { return codeLabels(t.Social) }

// HabitatLabels returns the habitat labels in display order.
func (t Tables) HabitatLabels() []string { return codeLabels(t.Habitat) }

// RegionLabels returns the region labels in display order.
func (t Tables) RegionLabels() []string {
	labels := make([]string, len(t.Regions))
	for i, r := range t.Regions {
		labels[i] = r.Label
	}
	return labels
}

func codeLabels(entries []CodeEntry) []string {
	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.Label
	}
	return labels
}
