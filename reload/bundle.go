// Package reload owns the loaded artifacts and swaps them when the model or
// dataset files change on disk.
package reload

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"wildtrack/config"
	"wildtrack/dataset"
	"wildtrack/ml"
	"wildtrack/overview"
)

// Bundle is the set of artifacts one request reads. It is never modified
// after Build returns.
type Bundle struct {
	Service  *ml.Service
	Overview *overview.Service
	LoadedAt time.Time
}

// Close releases the overview store.
func (b *Bundle) Close() error {
	if b == nil || b.Overview == nil {
		return nil
	}
	return b.Overview.Close()
}

// BuildOptions names the model artifact and how to encode for it.
type BuildOptions struct {
	ModelType string
	ModelPath string
	Schema    ml.Schema
	Tables    ml.Tables
	CacheSize int
	Logger    *zap.Logger
}

// LoadService loads the model artifact, checks it against the configured
// schema and pairs it with an encoder.
func LoadService(opts BuildOptions) (*ml.Service, error) {
	model, err := ml.LoadModel(opts.ModelType, opts.ModelPath)
	if err != nil {
		return nil, err
	}
	predictor, err := ml.NewPredictor(model, opts.Schema)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", opts.ModelPath, err)
	}
	encoder, err := ml.NewEncoder(opts.Tables, opts.Schema)
	if err != nil {
		return nil, err
	}
	return ml.NewService(encoder, predictor)
}

// Build loads the model and prepares the overview pages for snap. Any model
// failure is returned; a missing dataset only disables its pages.
func Build(ctx context.Context, opts BuildOptions, snap *dataset.Snapshot) (*Bundle, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	service, err := LoadService(opts)
	if err != nil {
		return nil, err
	}
	pages, err := overview.New(ctx, snap, opts.Tables, opts.CacheSize, log)
	if err != nil {
		return nil, err
	}

	predictor := service.Predictor()
	log.Info("artifacts loaded",
		zap.String("model", predictor.ModelType()),
		zap.String("schema", string(opts.Schema)),
		zap.Bool("probability", predictor.SupportsProbability()),
		zap.Strings("datasets", snap.Names()))
	return &Bundle{Service: service, Overview: pages, LoadedAt: time.Now()}, nil
}

// OptionsFromConfig 根据配置生成构建参数
func OptionsFromConfig(cfg *config.Config, log *zap.Logger) (BuildOptions, error) {
	schema, err := ml.ParseSchema(cfg.Model.Schema)
	if err != nil {
		return BuildOptions{}, err
	}
	return BuildOptions{
		ModelType: cfg.Model.Type,
		ModelPath: cfg.Model.Path,
		Schema:    schema,
		Tables:    ml.DefaultTables(),
		CacheSize: cfg.Cache.Size,
		Logger:    log,
	}, nil
}

// NewCatalog 根据配置创建数据集目录
func NewCatalog(cfg *config.Config, log *zap.Logger) *dataset.Catalog {
	return dataset.NewCatalog(cfg.Data.Encoding, log, dataset.DefaultSources(
		cfg.DataPath(cfg.Data.Animals),
		cfg.DataPath(cfg.Data.Climate),
		cfg.DataPath(cfg.Data.Combined),
	)...)
}

// Holder publishes the current Bundle. Readers call Load once per request
// and keep using that bundle.
type Holder struct {
	current atomic.Pointer[Bundle]
}

// NewHolder 创建持有者
func NewHolder(initial *Bundle) *Holder {
	h := &Holder{}
	h.current.Store(initial)
	return h
}

// Load returns the current bundle.
func (h *Holder) Load() *Bundle {
	return h.current.Load()
}

// Swap installs next and returns the bundle it replaced.
func (h *Holder) Swap(next *Bundle) *Bundle {
	return h.current.Swap(next)
}
