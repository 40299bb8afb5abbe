package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const animalsCSV = `Animal,Conservation Status,Diet,At_Risk,Offspring per Birth,Africa,Arctic
Lion,Vulnerable,Carnivore,True,3,True,False
Polar Bear,Vulnerable,Carnivore,True,2,False,True
Zebra,Least Concern,Herbivore,False,1,True,False
Broken,row
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseRejectsMalformedRows(t *testing.T) {
	frame, report, err := Parse(strings.NewReader(animalsCSV), Options{Name: Animals})
	require.NoError(t, err)

	assert.Equal(t, 3, frame.Len())
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 3, report.Passed)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 1, report.Issues["width"])

	risk, err := frame.Floats(ColAtRisk)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 0}, risk)
	assert.True(t, frame.IsNumeric("Arctic"))
	assert.False(t, frame.IsNumeric(ColDiet))

	v, err := frame.Value(1, "Animal")
	require.NoError(t, err)
	assert.Equal(t, "Polar Bear", v)
}

func TestParseRequiredColumns(t *testing.T) {
	_, _, err := Parse(strings.NewReader(animalsCSV), Options{Name: Animals, Required: []string{"Region"}})
	var colErr *ColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, "Region", colErr.Column)
}

func TestParseNumericRule(t *testing.T) {
	body := "At_Risk,temp_change\n1,0.5\n0,warm\n1,\n"
	frame, report, err := Parse(strings.NewReader(body), Options{
		Rules: []Rule{NumericRule{Columns: []string{"temp_change"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Len())
	assert.Equal(t, 1, report.Issues["numeric"])

	temps, err := frame.Floats("temp_change")
	require.NoError(t, err)
	assert.Equal(t, 0.5, temps[0])
	assert.True(t, math.IsNaN(temps[1]))
}

func TestParseDecodesWindows1252(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().String("Region,1901-07\nCôte d'Ivoire,25.1\n")
	require.NoError(t, err)

	frame, _, err := Parse(strings.NewReader(raw), Options{Encoding: "windows-1252"})
	require.NoError(t, err)
	region, err := frame.Value(0, ColRegion)
	require.NoError(t, err)
	assert.Equal(t, "Côte d'Ivoire", region)

	_, _, err = Parse(strings.NewReader(raw), Options{Encoding: "ebcdic"})
	assert.Error(t, err)
}

func TestParseStripsBOM(t *testing.T) {
	frame, _, err := Parse(strings.NewReader("\ufeffRegion,x\nAsia,1\n"), Options{})
	require.NoError(t, err)
	assert.True(t, frame.HasColumn(ColRegion))
}

func TestLoadErrors(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.csv"), Options{})
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, _, err = Load(writeFile(t, "empty.csv", ""), Options{})
	assert.True(t, errors.As(err, &loadErr))

	_, _, err = Load(writeFile(t, "dup.csv", "a,a\n1,2\n"), Options{})
	assert.True(t, errors.As(err, &loadErr))
}

func TestCatalogMemoizesAndReloads(t *testing.T) {
	animals := writeFile(t, "animals.csv", animalsCSV)
	catalog := NewCatalog("utf-8", nil, DefaultSources(animals, "", "")...)

	first := catalog.Snapshot()
	assert.Same(t, first, catalog.Snapshot())

	frame, err := first.Frame(Animals)
	require.NoError(t, err)
	assert.Equal(t, 3, frame.Len())

	_, err = first.Frame(Climate)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, []string{Animals}, first.Names())

	require.NoError(t, os.WriteFile(animals, []byte(animalsCSV+"Owl,Least Concern,Carnivore,False,2,False,True\n"), 0o600))
	next, err := catalog.Reload()
	require.NoError(t, err)
	assert.NotSame(t, first, next)
	assert.Same(t, next, catalog.Snapshot())
	frame, err = next.Frame(Animals)
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Len())
}

func TestCatalogReloadKeepsPreviousOnFailure(t *testing.T) {
	animals := writeFile(t, "animals.csv", animalsCSV)
	catalog := NewCatalog("", nil, DefaultSources(animals, "", "")...)
	first := catalog.Snapshot()

	require.NoError(t, os.Remove(animals))
	current, err := catalog.Reload()
	require.Error(t, err)
	assert.Same(t, first, current)
	assert.Same(t, first, catalog.Snapshot())
}

func TestWithColumn(t *testing.T) {
	frame, _, err := Parse(strings.NewReader(animalsCSV), Options{Name: Animals})
	require.NoError(t, err)

	derived, err := frame.WithColumn("Diet Group", []string{"meat", "meat", "plants"})
	require.NoError(t, err)
	assert.False(t, frame.HasColumn("Diet Group"))
	assert.Equal(t, Animals, derived.Name())

	v, err := derived.Value(2, "Diet Group")
	require.NoError(t, err)
	assert.Equal(t, "plants", v)

	replaced, err := derived.WithColumn(ColDiet, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, len(derived.Columns()), len(replaced.Columns()))

	_, err = frame.WithColumn("short", []string{"x"})
	assert.Error(t, err)
}
