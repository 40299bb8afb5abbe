package overview

import (
	"context"

	"wildtrack/analysis"
	"wildtrack/dataset"
	"wildtrack/db"
	"wildtrack/ml"
)

// CombinedPage 动物与气候联合概览
type CombinedPage struct {
	Rows                     int                     `json:"rows"`
	AvgTempRecentByDiet      map[string]analysis.Box `json:"avg_temp_recent_by_diet"`
	TempChangeByDiet         []db.Group              `json:"temp_change_by_diet"`
	StatusByDiet             []PairCount             `json:"status_by_diet,omitempty"`
	TempChangeByRisk         []db.Group              `json:"temp_change_by_risk"`
	TempChangeBoxByRisk      map[string]analysis.Box `json:"temp_change_box_by_risk"`
	OffspringTempCorrelation analysis.Float          `json:"offspring_temp_correlation"`
	OffspringByRisk          []db.Group              `json:"offspring_by_risk"`
	TempChangeByHabitat      []db.Group              `json:"temp_change_by_habitat"`
	AtRiskShareByHabitat     []db.Group              `json:"at_risk_share_by_habitat"`
	AtRiskShareBySocial      []db.Group              `json:"at_risk_share_by_social"`
	TempChangeBySocial       []db.Group              `json:"temp_change_by_social"`
	SocialRiskCounts         []PairCount             `json:"social_risk_counts"`
	SocialRiskCorrelation    analysis.Float          `json:"social_risk_correlation"`
}

func (s *Service) combinedPage(ctx context.Context) (*CombinedPage, error) {
	const table = dataset.Combined
	frame, err := s.snap.Frame(table)
	if err != nil {
		return nil, err
	}

	page := &CombinedPage{Rows: frame.Len()}
	if page.AvgTempRecentByDiet, err = s.boxesBy(ctx, table, dataset.ColDiet, ml.ColAvgTempRecent); err != nil {
		return nil, err
	}
	if page.TempChangeByDiet, err = s.store.MeanBy(ctx, table, dataset.ColDiet, ml.ColTempChange); err != nil {
		return nil, err
	}
	if frame.HasColumn(dataset.ColConservationStatus) {
		if page.StatusByDiet, err = s.pairCounts(ctx, table, dataset.ColDiet, dataset.ColConservationStatus); err != nil {
			return nil, err
		}
	}
	if page.TempChangeByRisk, err = s.store.MeanBy(ctx, table, dataset.ColAtRisk, ml.ColTempChange); err != nil {
		return nil, err
	}
	if page.TempChangeBoxByRisk, err = s.boxesBy(ctx, table, dataset.ColAtRisk, ml.ColTempChange); err != nil {
		return nil, err
	}

	offspring, err := s.store.Floats(ctx, table, ml.ColOffspring)
	if err != nil {
		return nil, err
	}
	temps, err := s.store.Floats(ctx, table, ml.ColTempChange)
	if err != nil {
		return nil, err
	}
	page.OffspringTempCorrelation = analysis.Float(analysis.Pearson(offspring, temps))
	if page.OffspringByRisk, err = s.store.MeanBy(ctx, table, dataset.ColAtRisk, ml.ColOffspring); err != nil {
		return nil, err
	}

	if page.TempChangeByHabitat, err = s.store.MeanBy(ctx, table, dataset.ColHabitatCategory, ml.ColTempChange); err != nil {
		return nil, err
	}
	if page.AtRiskShareByHabitat, err = s.store.MeanBy(ctx, table, dataset.ColHabitatCategory, dataset.ColAtRisk); err != nil {
		return nil, err
	}

	if page.AtRiskShareBySocial, err = s.store.MeanBy(ctx, table, dataset.ColSocialStructure, dataset.ColAtRisk); err != nil {
		return nil, err
	}
	if page.TempChangeBySocial, err = s.store.MeanBy(ctx, table, dataset.ColSocialStructure, ml.ColTempChange); err != nil {
		return nil, err
	}
	if page.SocialRiskCounts, err = s.pairCounts(ctx, table, dataset.ColSocialStructure, dataset.ColAtRisk); err != nil {
		return nil, err
	}

	social, err := s.store.Floats(ctx, table, ml.ColSocialEncoded)
	if err != nil {
		return nil, err
	}
	risk, err := s.store.Floats(ctx, table, dataset.ColAtRisk)
	if err != nil {
		return nil, err
	}
	page.SocialRiskCorrelation = analysis.Float(analysis.Pearson(social, risk))
	return page, nil
}
