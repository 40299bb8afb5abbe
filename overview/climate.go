package overview

import (
	"context"
	"fmt"
	"math"
	"sort"

	"wildtrack/analysis"
	"wildtrack/dataset"
)

const (
	julySuffix     = "-07"
	regionalFrom   = 2004
	regionalTo     = 2023
	forecastFrom   = 2024
	forecastTo     = 2030
	smoothingYears = 5
)

// YearValue 年度数值
type YearValue struct {
	Year  int            `json:"year"`
	Value analysis.Float `json:"value"`
}

// RegionSeries is one region's yearly values.
type RegionSeries struct {
	Region string      `json:"region"`
	Values []YearValue `json:"values"`
}

// ClimatePage 气候数据概览
type ClimatePage struct {
	Rows           int              `json:"rows"`
	Global         []YearValue      `json:"global"`
	GlobalSmoothed []YearValue      `json:"global_smoothed"`
	Regional       []RegionSeries   `json:"regional"`
	RegionalChange []RegionSeries   `json:"regional_change"`
	Trend          analysis.Line    `json:"trend"`
	Forecast       []analysis.Point `json:"forecast"`
}

func (s *Service) climatePage(ctx context.Context) (*ClimatePage, error) {
	const table = dataset.Climate
	frame, err := s.snap.Frame(table)
	if err != nil {
		return nil, err
	}
	all, err := s.numericYears(table, analysis.YearColumns(frame.Columns(), julySuffix, 0, 0))
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("%s needs at least two %q year columns", table, julySuffix)
	}

	page := &ClimatePage{Rows: frame.Len()}

	years := make([]float64, len(all))
	means := make([]float64, len(all))
	for i, yc := range all {
		values, err := s.store.Floats(ctx, table, yc.Column)
		if err != nil {
			return nil, err
		}
		years[i] = float64(yc.Year)
		means[i] = analysis.Mean(values)
		page.Global = append(page.Global, YearValue{Year: yc.Year, Value: analysis.Float(means[i])})
	}
	for i, v := range analysis.MovingAverage(means, smoothingYears) {
		page.GlobalSmoothed = append(page.GlobalSmoothed, YearValue{Year: all[i].Year, Value: analysis.Float(v)})
	}

	if page.Trend, err = analysis.LinearRegression(years, means); err != nil {
		return nil, err
	}
	page.Forecast = page.Trend.Forecast(forecastFrom, forecastTo)

	recent, err := s.numericYears(table, analysis.YearColumns(frame.Columns(), julySuffix, regionalFrom, regionalTo))
	if err != nil {
		return nil, err
	}
	perYear := make([]map[string]float64, len(recent))
	regions := make(map[string]bool)
	for i, yc := range recent {
		groups, err := s.store.MeanBy(ctx, table, dataset.ColRegion, yc.Column)
		if err != nil {
			return nil, err
		}
		perYear[i] = make(map[string]float64, len(groups))
		for _, g := range groups {
			perYear[i][g.Key] = g.Value
			regions[g.Key] = true
		}
	}

	for _, region := range sortedKeys(regions) {
		values := make([]float64, len(recent))
		series := RegionSeries{Region: region}
		for i, yc := range recent {
			v, ok := perYear[i][region]
			if !ok {
				v = math.NaN()
			}
			values[i] = v
			series.Values = append(series.Values, YearValue{Year: yc.Year, Value: analysis.Float(v)})
		}
		page.Regional = append(page.Regional, series)

		change := RegionSeries{Region: region}
		for i, d := range analysis.YearOverYear(values) {
			change.Values = append(change.Values, YearValue{Year: recent[i+1].Year, Value: analysis.Float(d)})
		}
		page.RegionalChange = append(page.RegionalChange, change)
	}
	return page, nil
}

// numericYears drops year columns that hold no numeric data.
func (s *Service) numericYears(table string, cols []analysis.YearColumn) ([]analysis.YearColumn, error) {
	names := make([]string, len(cols))
	for i, yc := range cols {
		names[i] = yc.Column
	}
	numeric, err := s.store.NumericColumns(table, names)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(numeric))
	for _, n := range numeric {
		keep[n] = true
	}
	out := make([]analysis.YearColumn, 0, len(numeric))
	for _, yc := range cols {
		if keep[yc.Column] {
			out = append(out, yc)
		}
	}
	return out, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
