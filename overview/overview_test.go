package overview

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildtrack/dataset"
	"wildtrack/ml"
)

const animalsCSV = `Animal,Conservation Status,Diet,At_Risk,Height (cm),Offspring per Birth,Africa,Asia,Arctic
Lion,Vulnerable,Carnivore,True,120,3,True,False,False
Tiger,Endangered,Carnivore,True,110,2,False,True,False
Zebra,Least Concern,Herbivore,False,140,1,True,False,False
Polar Bear,Vulnerable,Carnivore,True,160,2,False,False,True
Arctic Fox,Least Concern,Carnivore,False,30,7,False,False,True
`

const climateCSV = `Region,Country,2003-07,2004-07,2005-07,2006-07,2004-01
Africa,Kenya,20.0,20.5,21.0,21.2,19
Africa,Egypt,28.0,28.5,29.0,29.4,15
Asia,India,30.0,30.1,30.4,30.5,18
Arctic,Greenland,-6.0,-5.5,-5.0,-4.2,-20
`

const combinedCSV = `Animal,Diet,Conservation Status,At_Risk,Height (cm),Weight (kg),Lifespan (years),Gestation Period (days),Offspring per Birth,Social Structure,Social Encoded,Habitat,temp_change,avg_temp_recent,Region
Lion,Carnivore,Vulnerable,True,120,190,14,110,3,Group-based,3,Savannas,0.19,21.7,Africa
Tiger,Carnivore,Endangered,True,110,220,15,105,2,Solitary,8,Tropical forests,1.12,21.2,Asia
Zebra,Herbivore,Least Concern,False,140,380,25,365,1,Herd-based,4,Grasslands and plains,0.19,21.7,Africa
Polar Bear,Carnivore,Vulnerable,True,160,450,25,240,2,Solitary,8,Arctic tundra and sea ice,2.78,-5.0,Arctic
Arctic Fox,Carnivore,Least Concern,False,30,5,4,52,7,Solitary,8,Arctic tundra,2.78,-5.0,Arctic
Elephant,Herbivore,Endangered,True,300,6000,70,640,1,Herd-based,4,Savannas and forests,0.19,21.7,Africa
Walrus,Carnivore,Vulnerable,True,140,1200,40,450,1,Social groups,6,Arctic tundra coasts,2.78,-5.0,Arctic
`

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newTestService(t *testing.T, withClimate bool) *Service {
	t.Helper()
	dir := t.TempDir()
	climate := ""
	if withClimate {
		climate = writeCSV(t, dir, "climate.csv", climateCSV)
	}
	catalog := dataset.NewCatalog("utf-8", nil, dataset.DefaultSources(
		writeCSV(t, dir, "animals.csv", animalsCSV),
		climate,
		writeCSV(t, dir, "combined.csv", combinedCSV),
	)...)

	svc, err := New(context.Background(), catalog.Snapshot(), ml.DefaultTables(), 8, nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestAnimalPage(t *testing.T) {
	svc := newTestService(t, true)
	v, err := svc.Page(context.Background(), PageAnimal)
	require.NoError(t, err)
	page := v.(*AnimalPage)

	assert.Equal(t, 5, page.Rows)
	require.NotEmpty(t, page.StatusCounts)
	assert.Equal(t, "Least Concern", page.StatusCounts[0].Key)
	assert.Equal(t, float64(2), page.StatusCounts[0].Value)

	assert.Equal(t, 3, page.OffspringByRisk["1"].Count)
	assert.NotContains(t, page.Correlation.Columns, "Africa")
	assert.Contains(t, page.Correlation.Columns, "Height (cm)")

	// one at-risk species recorded in each region
	require.Len(t, page.AtRiskByRegion, 3)
	for _, g := range page.AtRiskByRegion {
		assert.Equal(t, float64(1), g.Value)
	}

	again, err := svc.Page(context.Background(), PageAnimal)
	require.NoError(t, err)
	assert.Same(t, page, again)
}

func TestClimatePage(t *testing.T) {
	svc := newTestService(t, true)
	v, err := svc.Page(context.Background(), PageClimate)
	require.NoError(t, err)
	page := v.(*ClimatePage)

	require.Len(t, page.Global, 4)
	assert.Equal(t, 2003, page.Global[0].Year)
	assert.InDelta(t, 18.0, float64(page.Global[0].Value), 1e-9)
	assert.Greater(t, page.Trend.Slope, 0.0)
	require.Len(t, page.Forecast, 7)
	assert.Equal(t, 2024.0, page.Forecast[0].X)

	require.Len(t, page.Regional, 3)
	assert.Equal(t, "Africa", page.Regional[0].Region)
	require.Len(t, page.Regional[0].Values, 3)
	assert.Equal(t, 2004, page.Regional[0].Values[0].Year)
	assert.InDelta(t, 24.5, float64(page.Regional[0].Values[0].Value), 1e-9)
	require.Len(t, page.RegionalChange[0].Values, 2)
	assert.InDelta(t, 0.5, float64(page.RegionalChange[0].Values[0].Value), 1e-9)

	_, err = json.Marshal(page)
	require.NoError(t, err)
}

func TestCombinedPage(t *testing.T) {
	svc := newTestService(t, true)
	v, err := svc.Page(context.Background(), PageCombined)
	require.NoError(t, err)
	page := v.(*CombinedPage)

	assert.Equal(t, 7, page.Rows)
	require.Len(t, page.TempChangeByDiet, 2)
	assert.Equal(t, "Herbivore", page.TempChangeByDiet[0].Key)
	assert.NotEmpty(t, page.StatusByDiet)

	var habitats []string
	for _, g := range page.TempChangeByHabitat {
		habitats = append(habitats, g.Key)
	}
	assert.ElementsMatch(t, []string{"Grasslands", "Forests", "Tundra"}, habitats)
	assert.NotZero(t, float64(page.SocialRiskCorrelation))

	_, err = json.Marshal(page)
	require.NoError(t, err)
}

func TestDataPage(t *testing.T) {
	svc := newTestService(t, true)
	v, err := svc.Page(context.Background(), PageData)
	require.NoError(t, err)
	page := v.(*DataPage)

	assert.Len(t, page.Preview.Rows, 5)
	assert.Len(t, page.Correlation.Columns, len(selectedColumns))
	assert.Contains(t, page.WeightByDiet, "Other")
	assert.NotEmpty(t, page.TempChangeHistogram)
	require.NotEmpty(t, page.TempChangeByRegion)
	assert.Equal(t, "Africa", page.TempChangeByRegion[0].Key)
	assert.Contains(t, page.TempChangeByHabitat, "Tundra")
	assert.NotContains(t, page.TempChangeByHabitat, "Forests")
}

func TestPagesDegradeIndependently(t *testing.T) {
	svc := newTestService(t, false)

	_, err := svc.Page(context.Background(), PageClimate)
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = svc.Page(context.Background(), PageAnimal)
	assert.NoError(t, err)

	infos := svc.Datasets()
	require.Len(t, infos, 3)
	assert.True(t, infos[0].Loaded)
	assert.False(t, infos[1].Loaded)
	assert.NotEmpty(t, infos[1].Error)
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage("Climate")
	require.NoError(t, err)
	assert.Equal(t, PageClimate, p)

	_, err = ParsePage("prediction")
	assert.True(t, errors.Is(err, ErrUnknownPage))
}

