// Package overview 描述性数据页面
package overview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"wildtrack/analysis"
	"wildtrack/dataset"
	"wildtrack/db"
	"wildtrack/ml"
)

// Page names one overview page.
type Page string

const (
	PageAnimal   Page = "animal"
	PageClimate  Page = "climate"
	PageCombined Page = "combined"
	PageData     Page = "data"
)

// Pages lists every page in menu order.
func Pages() []Page {
	return []Page{PageData, PageAnimal, PageClimate, PageCombined}
}

var (
	// ErrUnknownPage is returned for a page name that does not exist.
	ErrUnknownPage = errors.New("unknown overview page")
	// ErrUnavailable wraps the reason a page cannot be built.
	ErrUnavailable = errors.New("overview page unavailable")
)

// ParsePage resolves a page name.
func ParsePage(name string) (Page, error) {
	for _, p := range Pages() {
		if string(p) == strings.ToLower(name) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPage, name)
}

// source returns the dataset a page reads.
func (p Page) source() string {
	switch p {
	case PageAnimal:
		return dataset.Animals
	case PageClimate:
		return dataset.Climate
	default:
		return dataset.Combined
	}
}

// Service builds overview pages over one dataset snapshot. It owns a private
// in-memory store and an LRU of built pages; a reload creates a new Service.
type Service struct {
	snap    *dataset.Snapshot
	store   *db.Store
	cache   *lru.Cache[Page, any]
	regions []string
	log     *zap.Logger
}

// New loads every available frame of snap into a fresh store.
func New(ctx context.Context, snap *dataset.Snapshot, tables ml.Tables, cacheSize int, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cache, err := lru.New[Page, any](cacheSize)
	if err != nil {
		return nil, err
	}
	store, err := db.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	for _, name := range snap.Names() {
		frame, _ := snap.Frame(name)
		if name == dataset.Combined {
			frame = withHabitatCategory(frame)
		}
		if err := store.LoadFrame(ctx, frame); err != nil {
			store.Close()
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}

	return &Service{
		snap:    snap,
		store:   store,
		cache:   cache,
		regions: tables.RegionLabels(),
		log:     log,
	}, nil
}

// withHabitatCategory derives the simplified habitat column when the file
// only carries free-text habitats.
func withHabitatCategory(frame *dataset.Frame) *dataset.Frame {
	if frame.HasColumn(dataset.ColHabitatCategory) || !frame.HasColumn(dataset.ColHabitat) {
		return frame
	}
	habitats, _ := frame.Strings(dataset.ColHabitat)
	categories := make([]string, len(habitats))
	for i, h := range habitats {
		categories[i] = analysis.SimplifyHabitat(h)
	}
	derived, err := frame.WithColumn(dataset.ColHabitatCategory, categories)
	if err != nil {
		return frame
	}
	return derived
}

// Close releases the store.
func (s *Service) Close() error {
	s.cache.Purge()
	return s.store.Close()
}

// LoadedAt returns when the underlying datasets were read.
func (s *Service) LoadedAt() time.Time {
	return s.snap.LoadedAt
}

// Page returns a page, building and caching it on first request. A page whose
// dataset failed to load returns an error wrapping ErrUnavailable; other
// pages are unaffected.
func (s *Service) Page(ctx context.Context, page Page) (any, error) {
	if v, ok := s.cache.Get(page); ok {
		return v, nil
	}
	if _, err := s.snap.Frame(page.source()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, page, err)
	}

	var (
		v   any
		err error
	)
	switch page {
	case PageAnimal:
		v, err = s.animalPage(ctx)
	case PageClimate:
		v, err = s.climatePage(ctx)
	case PageCombined:
		v, err = s.combinedPage(ctx)
	case PageData:
		v, err = s.dataPage(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}
	if err != nil {
		s.log.Warn("overview page failed", zap.String("page", string(page)), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, page, err)
	}
	s.cache.Add(page, v)
	return v, nil
}

// DatasetInfo 数据集概况
type DatasetInfo struct {
	Name     string          `json:"name"`
	Loaded   bool            `json:"loaded"`
	Rows     int             `json:"rows,omitempty"`
	Columns  []string        `json:"columns,omitempty"`
	Report   *dataset.Report `json:"report,omitempty"`
	Error    string          `json:"error,omitempty"`
	LoadedAt time.Time       `json:"loaded_at"`
}

// Datasets describes the three dashboard datasets.
func (s *Service) Datasets() []DatasetInfo {
	names := []string{dataset.Animals, dataset.Climate, dataset.Combined}
	out := make([]DatasetInfo, 0, len(names))
	for _, name := range names {
		info := DatasetInfo{Name: name, LoadedAt: s.snap.LoadedAt}
		frame, err := s.snap.Frame(name)
		if err != nil {
			info.Error = err.Error()
			out = append(out, info)
			continue
		}
		info.Loaded = true
		info.Rows = frame.Len()
		info.Columns = frame.Columns()
		if r, ok := s.snap.Report(name); ok {
			info.Report = &r
		}
		out = append(out, info)
	}
	return out
}

// correlation builds a matrix over the numeric columns among candidates.
func (s *Service) correlation(ctx context.Context, table string, candidates []string) (analysis.Matrix, error) {
	cols, err := s.store.NumericColumns(table, candidates)
	if err != nil {
		return analysis.Matrix{}, err
	}
	series := make([][]float64, len(cols))
	for i, col := range cols {
		if series[i], err = s.store.Floats(ctx, table, col); err != nil {
			return analysis.Matrix{}, err
		}
	}
	return analysis.CorrelationMatrix(cols, series), nil
}

// boxesBy computes box statistics of value per group.
func (s *Service) boxesBy(ctx context.Context, table, group, value string) (map[string]analysis.Box, error) {
	grouped, err := s.store.FloatsBy(ctx, table, group, value)
	if err != nil {
		return nil, err
	}
	out := make(map[string]analysis.Box, len(grouped))
	for k, values := range grouped {
		out[k] = analysis.BoxStats(values)
	}
	return out, nil
}

// PairCount is a count for one combination of two categorical values.
type PairCount struct {
	A     string `json:"a"`
	B     string `json:"b"`
	Count int    `json:"count"`
}

func (s *Service) pairCounts(ctx context.Context, table, a, b string) ([]PairCount, error) {
	groups, err := s.store.CountByPair(ctx, table, a, b)
	if err != nil {
		return nil, err
	}
	out := make([]PairCount, 0, len(groups))
	for _, g := range groups {
		i := strings.LastIndex(g.Key, "|")
		if i < 0 {
			continue
		}
		out = append(out, PairCount{A: g.Key[:i], B: g.Key[i+1:], Count: int(g.Value)})
	}
	return out, nil
}

func without(cols []string, drop []string) []string {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}
