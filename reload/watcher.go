package reload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Loader builds a fresh bundle from disk.
type Loader func(ctx context.Context) (*Bundle, error)

// WatcherConfig configures the artifact watcher
type WatcherConfig struct {
	// ModelPath is the model artifact file
	ModelPath string

	// DataDir holds the CSV datasets; any .csv change triggers a reload
	DataDir string

	// Debounce is how long to wait for more changes before reloading
	Debounce time.Duration

	// Grace is how long a replaced bundle stays open for in-flight requests
	Grace time.Duration

	// OnReload is called after every attempt, once a successful bundle is
	// already visible through the holder
	OnReload func(err error)

	Logger *zap.Logger
}

// Watcher reloads the artifacts when their files change.
type Watcher struct {
	config  WatcherConfig
	holder  *Holder
	load    Loader
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
	started bool
	done    chan struct{}

	reloadMu sync.Mutex
}

// NewWatcher creates a new artifact watcher
func NewWatcher(config WatcherConfig, holder *Holder, load Loader) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	if config.Grace <= 0 {
		config.Grace = 30 * time.Second
	}
	if config.ModelPath != "" {
		config.ModelPath = filepath.Clean(config.ModelPath)
	}
	if config.DataDir != "" {
		config.DataDir = filepath.Clean(config.DataDir)
	}
	return &Watcher{
		config:  config,
		holder:  holder,
		load:    load,
		watcher: fsw,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start watches the model directory and the data directory. Directories are
// watched rather than files so editors that replace files by rename are seen.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	if w.config.ModelPath != "" {
		dirs[filepath.Dir(w.config.ModelPath)] = true
	}
	if w.config.DataDir != "" {
		if _, err := os.Stat(w.config.DataDir); err == nil {
			dirs[w.config.DataDir] = true
		} else {
			w.logger.Warn("data directory not watched", zap.String("dir", w.config.DataDir), zap.Error(err))
		}
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.processEvents(ctx)

	w.logger.Info("artifact watcher started",
		zap.String("model", w.config.ModelPath),
		zap.String("data_dir", w.config.DataDir),
		zap.Duration("debounce", w.config.Debounce))
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	started := w.started
	w.mu.Unlock()
	err := w.watcher.Close()
	if started {
		<-w.done
	}
	return err
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.schedule(ctx)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	if name == w.config.ModelPath {
		return true
	}
	return w.config.DataDir != "" &&
		filepath.Dir(name) == w.config.DataDir &&
		strings.EqualFold(filepath.Ext(name), ".csv")
}

// schedule debounces a burst of events into one reload.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		run := w.pending
		w.pending = false
		w.mu.Unlock()
		if run && ctx.Err() == nil {
			_ = w.Reload(ctx)
		}
	})
}

// Reload builds a new bundle and swaps it in. On failure the current bundle
// stays in place.
func (w *Watcher) Reload(ctx context.Context) error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	next, err := w.load(ctx)
	if err != nil {
		w.logger.Error("artifact reload failed, keeping previous artifacts", zap.Error(err))
		w.notify(err)
		return err
	}

	prev := w.holder.Swap(next)
	w.logger.Info("artifacts reloaded", zap.Time("loaded_at", next.LoadedAt))
	w.notify(nil)
	if prev != nil {
		time.AfterFunc(w.config.Grace, func() {
			if err := prev.Close(); err != nil {
				w.logger.Warn("close replaced artifacts", zap.Error(err))
			}
		})
	}
	return nil
}

// notify runs OnReload once the holder reflects the outcome.
func (w *Watcher) notify(err error) {
	if w.config.OnReload != nil {
		w.config.OnReload(err)
	}
}
