package overview

import (
	"context"
	"sort"

	"wildtrack/analysis"
	"wildtrack/dataset"
	"wildtrack/db"
)

// AnimalPage 动物数据概览
type AnimalPage struct {
	Rows            int                     `json:"rows"`
	StatusCounts    []db.Group              `json:"status_counts"`
	OffspringByRisk map[string]analysis.Box `json:"offspring_by_risk"`
	DietByRisk      []PairCount             `json:"diet_by_risk"`
	Correlation     analysis.Matrix         `json:"correlation"`
	AtRiskByRegion  []db.Group              `json:"at_risk_by_region"`
}

func (s *Service) animalPage(ctx context.Context) (*AnimalPage, error) {
	const table = dataset.Animals
	frame, err := s.snap.Frame(table)
	if err != nil {
		return nil, err
	}

	page := &AnimalPage{Rows: frame.Len()}
	if page.StatusCounts, err = s.store.CountBy(ctx, table, dataset.ColConservationStatus); err != nil {
		return nil, err
	}
	if page.OffspringByRisk, err = s.boxesBy(ctx, table, dataset.ColAtRisk, "Offspring per Birth"); err != nil {
		return nil, err
	}
	if page.DietByRisk, err = s.pairCounts(ctx, table, dataset.ColDiet, dataset.ColAtRisk); err != nil {
		return nil, err
	}
	// region indicator columns would dominate the matrix
	if page.Correlation, err = s.correlation(ctx, table, without(frame.Columns(), s.regions)); err != nil {
		return nil, err
	}
	if page.AtRiskByRegion, err = s.store.SumWhere(ctx, table, s.regions, dataset.ColAtRisk, 1); err != nil {
		return nil, err
	}
	sort.SliceStable(page.AtRiskByRegion, func(i, j int) bool {
		return page.AtRiskByRegion[i].Value < page.AtRiskByRegion[j].Value
	})
	return page, nil
}
