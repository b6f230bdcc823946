package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/history"
	"github.com/rushteam/shoprec/pkg/logger"
	"github.com/rushteam/shoprec/pkg/metrics"
	"github.com/rushteam/shoprec/server"
	"github.com/rushteam/shoprec/settings"
	"github.com/rushteam/shoprec/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config (default $SHOPREC_CONFIG)")
	flag.Parse()

	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "shoprec: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(cfg.Catalog, log)
	if err != nil {
		return err
	}

	hist, closeHistory, err := openHistory(ctx, cfg.History, log)
	if err != nil {
		return err
	}
	defer closeHistory()

	rec := metrics.NewRecorder()
	eng, err := engine.New(cat, hist,
		engine.WithLogger(log),
		engine.WithMetrics(rec),
		engine.WithDefaults(cfg.Engine),
		engine.WithIndexCache(cfg.Engine.IndexCache),
		engine.WithPostFilter(cfg.Engine.PostFilter),
		engine.WithPipelineFile(cfg.Engine.PipelineFile),
	)
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	defer eng.Close()

	srv := server.New(eng, log, rec, server.Options{
		Addr:              cfg.Server.Addr,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	})
	return srv.ListenAndServe(ctx)
}

func loadCatalog(cfg settings.CatalogSettings, log *logger.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.LoadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Info("catalog loaded", "path", cfg.Path, "products", cat.Len(), "ratings", len(cat.Ratings()))

	if cfg.TrendingPath == "" {
		return cat, nil
	}
	trending, err := catalog.LoadTrendingFile(cfg.TrendingPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("trending file not found, trending list disabled", "path", cfg.TrendingPath)
		return cat, nil
	case err != nil:
		return nil, fmt.Errorf("load trending: %w", err)
	}
	log.Info("trending loaded", "path", cfg.TrendingPath, "products", len(trending))
	return cat.WithTrending(trending), nil
}

func openHistory(ctx context.Context, cfg settings.HistorySettings, log *logger.Logger) (history.Store, func(), error) {
	kvOpts := history.KVOptions{MaxEntries: cfg.MaxEntries, TTL: cfg.TTL}
	log = log.With("backend", cfg.Backend)

	switch cfg.Backend {
	case settings.BackendMemory:
		kv := store.NewMemoryStore()
		log.Info("browsing history ready")
		return history.NewKVStore(kv, kvOpts), func() { _ = kv.Close() }, nil

	case settings.BackendRedis:
		kv, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		log.Info("browsing history ready", "addr", cfg.RedisAddr)
		return history.NewKVStore(kv, kvOpts), func() { _ = kv.Close() }, nil

	default:
		db, err := history.OpenDB(cfg.Backend, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		gs, err := history.NewGormStore(db)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		log.Info("browsing history ready")
		return gs, closeFn, nil
	}
}
