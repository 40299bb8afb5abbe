package dataset

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Dataset names.
const (
	Animals  = "animals"
	Climate  = "climate"
	Combined = "combined"
)

// Columns the overview pages depend on.
const (
	ColAtRisk             = "At_Risk"
	ColConservationStatus = "Conservation Status"
	ColDiet               = "Diet"
	ColRegion             = "Region"
	ColHabitat            = "Habitat"
	ColHabitatCategory    = "Habitat Category"
	ColSocialStructure    = "Social Structure"
)

// ErrNotConfigured is returned for a dataset without a path.
var ErrNotConfigured = errors.New("dataset not configured")

// Source describes one CSV file in the catalog.
type Source struct {
	Name     string
	Path     string
	Required []string
	Rules    []Rule
}

// DefaultSources returns the three dashboard datasets with their required
// columns.
func DefaultSources(animals, climate, combined string) []Source {
	return []Source{
		{
			Name:     Animals,
			Path:     animals,
			Required: []string{ColConservationStatus, ColAtRisk},
			Rules:    []Rule{NumericRule{Columns: []string{ColAtRisk}}},
		},
		{
			Name:     Climate,
			Path:     climate,
			Required: []string{ColRegion},
		},
		{
			Name:     Combined,
			Path:     combined,
			Required: []string{ColAtRisk, "temp_change"},
			Rules:    []Rule{NumericRule{Columns: []string{ColAtRisk, "temp_change", "avg_temp_recent"}}},
		},
	}
}

// Snapshot is one immutable load of every source. A source that failed to
// load keeps its error; the others remain usable.
type Snapshot struct {
	frames   map[string]*Frame
	reports  map[string]Report
	errs     map[string]error
	LoadedAt time.Time
}

// Frame returns a loaded dataset or the error that prevented loading it.
func (s *Snapshot) Frame(name string) (*Frame, error) {
	if err, ok := s.errs[name]; ok {
		return nil, err
	}
	f, ok := s.frames[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	return f, nil
}

// Report returns the load statistics of a dataset.
func (s *Snapshot) Report(name string) (Report, bool) {
	r, ok := s.reports[name]
	return r, ok
}

// Names returns the names of the successfully loaded datasets.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.frames))
	for name := range s.frames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog loads the configured datasets once per process and hands out the
// current Snapshot.
type Catalog struct {
	sources  []Source
	encoding string
	log      *zap.Logger

	once    sync.Once
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

// NewCatalog 创建数据集目录
func NewCatalog(encoding string, log *zap.Logger, sources ...Source) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{sources: sources, encoding: encoding, log: log}
}

// Snapshot returns the memoized datasets, loading them on first use.
func (c *Catalog) Snapshot() *Snapshot {
	c.once.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.current.Load() == nil {
			c.current.Store(c.load())
		}
	})
	return c.current.Load()
}

// Reload reads every source again. If a dataset that loaded previously now
// fails, the previous snapshot stays current and the failures are returned.
func (c *Catalog) Reload() (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.load()
	if prev := c.current.Load(); prev != nil {
		var errs []error
		for name := range prev.frames {
			if err, failed := next.errs[name]; failed {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return prev, errors.Join(errs...)
		}
	}
	c.current.Store(next)
	return next, nil
}

func (c *Catalog) load() *Snapshot {
	snap := &Snapshot{
		frames:   make(map[string]*Frame),
		reports:  make(map[string]Report),
		errs:     make(map[string]error),
		LoadedAt: time.Now(),
	}
	for _, src := range c.sources {
		if src.Path == "" {
			snap.errs[src.Name] = fmt.Errorf("%s: %w", src.Name, ErrNotConfigured)
			continue
		}
		frame, report, err := Load(src.Path, Options{
			Name:     src.Name,
			Encoding: c.encoding,
			Required: src.Required,
			Rules:    src.Rules,
		})
		if err != nil {
			c.log.Warn("dataset unavailable", zap.String("dataset", src.Name), zap.Error(err))
			snap.errs[src.Name] = err
			continue
		}
		if report.Rejected > 0 {
			c.log.Warn("dataset rows rejected",
				zap.String("dataset", src.Name),
				zap.Int("rejected", report.Rejected),
				zap.Any("issues", report.Issues))
		}
		c.log.Info("dataset loaded",
			zap.String("dataset", src.Name),
			zap.String("path", src.Path),
			zap.Int("rows", frame.Len()))
		snap.frames[src.Name] = frame
		snap.reports[src.Name] = report
	}
	return snap
}
