package analysis

import "strings"

// HabitatOther is the category for habitats matching no keyword.
const HabitatOther = "Other"

// habitatKeywords is checked in order; the first keyword contained in the
// habitat text wins.
var habitatKeywords = []struct {
	keyword  string
	category string
}{
	{"forest", "Forests"},
	{"rainforest", "Forests"},
	{"mountain", "Mountains"},
	{"desert", "Deserts"},
	{"tundra", "Tundra"},
	{"wetland", "Wetlands"},
	{"ocean", "Oceans"},
	{"marine", "Oceans"},
	{"freshwater", "Freshwater"},
	{"river", "Freshwater"},
	{"lake", "Freshwater"},
	{"grassland", "Grasslands"},
	{"savanna", "Grasslands"},
	{"plain", "Grasslands"},
}

// SimplifyHabitat maps a free-text habitat description to one of the
// habitat categories used by the encoder.
func SimplifyHabitat(habitat string) string {
	lower := strings.ToLower(habitat)
	for _, k := range habitatKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.category
		}
	}
	return HabitatOther
}
