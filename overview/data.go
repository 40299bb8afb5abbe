package overview

import (
	"context"

	"wildtrack/analysis"
	"wildtrack/dataset"
	"wildtrack/db"
	"wildtrack/ml"
)

const (
	previewRows      = 5
	histogramBins    = 20
	rareDietMin      = 5
	rareHabitatMin   = 3
	groupedDietLabel = "Other"
)

// Preview is the head of a dataset.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// DataPage 合并数据概览
type DataPage struct {
	Rows                int                     `json:"rows"`
	Preview             Preview                 `json:"preview"`
	Correlation         analysis.Matrix         `json:"correlation"`
	WeightByDiet        map[string]analysis.Box `json:"weight_by_diet"`
	AtRiskByHabitat     []db.Group              `json:"at_risk_by_habitat"`
	TempChangeBoxByRisk map[string]analysis.Box `json:"temp_change_box_by_risk"`
	LifespanByRisk      map[string]analysis.Box `json:"lifespan_by_risk"`
	TempChangeHistogram []analysis.Bin          `json:"temp_change_histogram"`
	TempChangeByRegion  []db.Group              `json:"temp_change_by_region,omitempty"`
	TempChangeByHabitat map[string]analysis.Box `json:"temp_change_by_habitat"`
}

// selectedColumns are the traits and climate variables shown in the
// correlation heatmap.
var selectedColumns = []string{
	ml.ColHeight,
	ml.ColWeight,
	ml.ColLifespan,
	ml.ColSocialEncoded,
	ml.ColGestation,
	ml.ColOffspring,
	ml.ColTempChange,
	ml.ColAvgTempRecent,
	dataset.ColAtRisk,
}

func (s *Service) dataPage(ctx context.Context) (*DataPage, error) {
	const table = dataset.Combined
	frame, err := s.snap.Frame(table)
	if err != nil {
		return nil, err
	}

	page := &DataPage{Rows: frame.Len(), Preview: preview(frame, previewRows)}
	if page.Correlation, err = s.correlation(ctx, table, selectedColumns); err != nil {
		return nil, err
	}

	diets, err := frame.Strings(dataset.ColDiet)
	if err != nil {
		return nil, err
	}
	weights, err := frame.Floats(ml.ColWeight)
	if err != nil {
		return nil, err
	}
	page.WeightByDiet = boxesByKey(analysis.GroupRare(diets, rareDietMin, groupedDietLabel), weights)

	if page.AtRiskByHabitat, err = s.store.SumBy(ctx, table, dataset.ColHabitatCategory, dataset.ColAtRisk); err != nil {
		return nil, err
	}
	if page.TempChangeBoxByRisk, err = s.boxesBy(ctx, table, dataset.ColAtRisk, ml.ColTempChange); err != nil {
		return nil, err
	}
	if page.LifespanByRisk, err = s.boxesBy(ctx, table, dataset.ColAtRisk, ml.ColLifespan); err != nil {
		return nil, err
	}

	temps, err := s.store.Floats(ctx, table, ml.ColTempChange)
	if err != nil {
		return nil, err
	}
	page.TempChangeHistogram = analysis.Histogram(temps, histogramBins)

	if frame.HasColumn(dataset.ColRegion) {
		if page.TempChangeByRegion, err = s.store.MeanBy(ctx, table, dataset.ColRegion, ml.ColTempChange); err != nil {
			return nil, err
		}
	}

	byHabitat, err := s.boxesBy(ctx, table, dataset.ColHabitatCategory, ml.ColTempChange)
	if err != nil {
		return nil, err
	}
	page.TempChangeByHabitat = make(map[string]analysis.Box, len(byHabitat))
	for k, box := range byHabitat {
		if box.Count >= rareHabitatMin {
			page.TempChangeByHabitat[k] = box
		}
	}
	return page, nil
}

func preview(frame *dataset.Frame, n int) Preview {
	rows := frame.Rows()
	if len(rows) > n {
		rows = rows[:n]
	}
	out := Preview{Columns: frame.Columns(), Rows: make([][]string, len(rows))}
	for i, r := range rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

func boxesByKey(keys []string, values []float64) map[string]analysis.Box {
	grouped := make(map[string][]float64)
	for i, k := range keys {
		if k == "" || i >= len(values) {
			continue
		}
		grouped[k] = append(grouped[k], values[i])
	}
	out := make(map[string]analysis.Box, len(grouped))
	for k, v := range grouped {
		out[k] = analysis.BoxStats(v)
	}
	return out
}
