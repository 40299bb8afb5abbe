package ml

import (
	"errors"
	"testing"
)

func newTestEncoder(t *testing.T, schema Schema) *Encoder {
	t.Helper()
	enc, err := NewEncoder(DefaultTables(), schema)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	return enc
}

func TestSocialCodesDeterministicAndDistinct(t *testing.T) {
	enc := newTestEncoder(t, SchemaExtended)
	labels := enc.Tables().SocialLabels()
	if len(labels) != 10 {
		t.Fatalf("expected 10 social labels, got %d", len(labels))
	}

	seen := make(map[int]string)
	for _, label := range labels {
		first, err := enc.SocialCode(label)
		if err != nil {
			t.Fatalf("SocialCode(%q): %v", label, err)
		}
		for i := 0; i < 3; i++ {
			again, _ := enc.SocialCode(label)
			if again != first {
				t.Fatalf("SocialCode(%q) changed from %d to %d", label, first, again)
			}
		}
		if other, dup := seen[first]; dup {
			t.Fatalf("labels %q and %q share code %d", other, label, first)
		}
		seen[first] = label
	}
}

func TestRegionClimateIndependentOfTraits(t *testing.T) {
	enc := newTestEncoder(t, SchemaExtended)
	traitSets := []Traits{
		DefaultTraits(),
		{Height: 1, Weight: 1, Lifespan: 1, Speed: 1, Gestation: 10, Offspring: 1},
		{Height: 500, Weight: 5000, Lifespan: 150, Speed: 120, Gestation: 1000, Offspring: 20},
	}

	for _, region := range DefaultTables().Regions {
		for _, traits := range traitSets {
			row, err := enc.Encode(Selection{
				Traits:  traits,
				Social:  "Solitary",
				Region:  region.Label,
				Habitat: "Forests",
			})
			if err != nil {
				t.Fatalf("Encode(%s): %v", region.Label, err)
			}
			ext := row.(ExtendedFeatures)
			if ext.TempChange != region.Climate.TempChange || ext.AvgTempRecent != region.Climate.AvgTempRecent {
				t.Fatalf("%s: got (%v, %v), want (%v, %v)", region.Label,
					ext.TempChange, ext.AvgTempRecent, region.Climate.TempChange, region.Climate.AvgTempRecent)
			}
		}
	}
}

func TestArcticClimate(t *testing.T) {
	enc := newTestEncoder(t, SchemaExtended)
	row, err := enc.Encode(Selection{
		Traits:  Traits{Height: 300, Weight: 800, Lifespan: 30, Speed: 40, Gestation: 240, Offspring: 2},
		Social:  "Pack-based",
		Region:  "Arctic",
		Habitat: "Tundra",
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	m := FeatureMap(row)
	if m[ColTempChange] != 2.78 {
		t.Fatalf("temp_change = %v, want 2.78", m[ColTempChange])
	}
	if m[ColAvgTempRecent] != -5.0 {
		t.Fatalf("avg_temp_recent = %v, want -5.0", m[ColAvgTempRecent])
	}
	if m[ColSocialEncoded] != 5 || m[ColHabitat] != 7 {
		t.Fatalf("unexpected codes: social=%v habitat=%v", m[ColSocialEncoded], m[ColHabitat])
	}
}

func TestUnknownCategories(t *testing.T) {
	enc := newTestEncoder(t, SchemaExtended)
	base := Selection{Traits: DefaultTraits(), Social: "Solitary", Region: "Asia", Habitat: "Forests"}

	tests := []struct {
		name  string
		edit  func(*Selection)
		field string
	}{
		{"habitat", func(s *Selection) { s.Habitat = "Lava Fields" }, "habitat"},
		{"social", func(s *Selection) { s.Social = "Hive mind" }, "social_structure"},
		{"region", func(s *Selection) { s.Region = "Antarctica" }, "region"},
		{"empty habitat", func(s *Selection) { s.Habitat = "" }, "habitat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := base
			tt.edit(&sel)
			_, err := enc.Encode(sel)
			var catErr *InvalidCategoryError
			if !errors.As(err, &catErr) {
				t.Fatalf("expected InvalidCategoryError, got %v", err)
			}
			if catErr.Field != tt.field {
				t.Fatalf("field = %q, want %q", catErr.Field, tt.field)
			}
		})
	}
}

func TestEncodeRejectsOutOfRangeTraits(t *testing.T) {
	enc := newTestEncoder(t, SchemaBasic)
	traits := DefaultTraits()
	traits.Gestation = 5

	_, err := enc.Encode(Selection{Traits: traits, Region: "Asia"})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestBasicSchemaTempChange(t *testing.T) {
	enc := newTestEncoder(t, SchemaBasic)

	manual := 1.5
	row, err := enc.Encode(Selection{Traits: DefaultTraits(), TempChange: &manual})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	basic := row.(BasicFeatures)
	if basic.TempChange != 1.5 {
		t.Fatalf("temp_change = %v, want 1.5", basic.TempChange)
	}
	if len(row.Values()) != 7 {
		t.Fatalf("expected 7 values, got %d", len(row.Values()))
	}

	row, err = enc.Encode(Selection{Traits: DefaultTraits(), Region: "Europe", TempChange: &manual})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if row.(BasicFeatures).TempChange != 1.51 {
		t.Fatalf("region should win over manual value, got %v", row.(BasicFeatures).TempChange)
	}

	tooHot := 4.5
	if _, err := enc.Encode(Selection{Traits: DefaultTraits(), TempChange: &tooHot}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}

	var catErr *InvalidCategoryError
	if _, err := enc.Encode(Selection{Traits: DefaultTraits()}); !errors.As(err, &catErr) {
		t.Fatalf("expected InvalidCategoryError without region or temp change, got %v", err)
	}
}

func TestNewEncoderRejectsInconsistentTables(t *testing.T) {
	dupLabel := DefaultTables()
	dupLabel.Habitat = append(dupLabel.Habitat, CodeEntry{Label: "Forests", Code: 42})
	if _, err := NewEncoder(dupLabel, SchemaExtended); err == nil {
		t.Fatal("expected duplicate label error")
	}

	dupCode := DefaultTables()
	dupCode.Social[1].Code = 0
	if _, err := NewEncoder(dupCode, SchemaExtended); err == nil {
		t.Fatal("expected duplicate code error")
	}

	if _, err := NewEncoder(DefaultTables(), Schema("wide")); err == nil {
		t.Fatal("expected unknown schema error")
	}
}

func TestEncoderOwnsItsTables(t *testing.T) {
	tables := DefaultTables()
	enc, err := NewEncoder(tables, SchemaExtended)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	tables.Regions[5].Climate.TempChange = 99

	climate, err := enc.RegionClimate("Arctic")
	if err != nil {
		t.Fatalf("RegionClimate: %v", err)
	}
	if climate.TempChange != 2.78 {
		t.Fatalf("encoder table changed through caller copy: %v", climate.TempChange)
	}
}
