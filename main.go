package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"wildtrack/config"
	qhttp "wildtrack/http"
	"wildtrack/logger"
	"wildtrack/monitoring"
	"wildtrack/reload"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. Load config
	configPath = config.Locate(configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ResolvePaths(configPath)

	// 2. Logger
	log, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Artifacts. A model that cannot be loaded is fatal; missing datasets
	// only disable their overview pages.
	opts, err := reload.OptionsFromConfig(cfg, log)
	if err != nil {
		return err
	}
	catalog := reload.NewCatalog(cfg, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bundle, err := reload.Build(ctx, opts, catalog.Snapshot())
	if err != nil {
		return err
	}
	holder := reload.NewHolder(bundle)
	metrics := monitoring.NewMetrics()

	// 4. HTTP server
	server, err := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, qhttp.Deps{Artifacts: holder, Metrics: metrics, Logger: log})
	if err != nil {
		return err
	}

	// 5. Optional artifact watcher
	if cfg.Reload.Watch {
		watcher, err := reload.NewWatcher(reload.WatcherConfig{
			ModelPath: cfg.Model.Path,
			DataDir:   cfg.Data.Dir,
			Debounce:  cfg.Reload.Debounce,
			Logger:    log,
			OnReload: func(err error) {
				metrics.ObserveReload(err)
				loadedAt := time.Time{}
				if b := holder.Load(); b != nil {
					loadedAt = b.LoadedAt
				}
				server.Hub().NotifyReload(err, loadedAt)
			},
		}, holder, func(ctx context.Context) (*reload.Bundle, error) {
			snap, err := catalog.Reload()
			if err != nil {
				return nil, err
			}
			return reload.Build(ctx, opts, snap)
		})
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer watcher.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 6. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}
	if b := holder.Load(); b != nil {
		b.Close()
	}

	log.Info("exiting")
	return nil
}
