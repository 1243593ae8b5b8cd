package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/cache"
	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/db"
	"github.com/jonathan/job-matcher/internal/logging"
	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/taxonomy"
)

// loadConfig loads the configuration from --config and the environment and builds its logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// loadRegistry loads the taxonomy at path, or the embedded one when path is empty.
func loadRegistry(path string) (*taxonomy.Registry, error) {
	if path == "" {
		return taxonomy.Default()
	}
	return taxonomy.LoadFile(path)
}

// newEngine builds the engine from the configuration. The classification cache and its shared
// tier are only set up when withCache is true.
func newEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger, withCache bool) (*pipeline.Engine, error) {
	reg, err := loadRegistry(cfg.Taxonomy.Path)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Registry:          reg,
		Scoring:           cfg.Scoring.Ranking(),
		Workers:           cfg.Scoring.Workers,
		MaxJobsPerRequest: cfg.Matching.MaxJobsPerRequest,
		Logger:            logger,
	}
	if withCache && cfg.Cache.Enabled {
		l2, err := openSharedTier(ctx, cfg.Cache, logger)
		if err != nil {
			return nil, err
		}
		opts.Cache = &cache.Options{
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
			L2:         l2,
			Backend:    cfg.Cache.Backend,
			Logger:     logger,
		}
	}

	engine, err := pipeline.New(opts)
	if err != nil {
		if opts.Cache != nil && opts.Cache.L2 != nil {
			_ = opts.Cache.L2.Close()
		}
		return nil, err
	}
	return engine, nil
}

// openSharedTier connects the configured L2 store behind a circuit breaker. The memory
// backend has no shared tier and returns nil.
func openSharedTier(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (cache.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		store, err := cache.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info("classification cache uses redis")
		return cache.NewBreakerStore("redis", store, cfg.Breaker, logger), nil
	case config.BackendPostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store, err := cache.NewPostgresStore(ctx, database)
		if err != nil {
			database.Close()
			return nil, err
		}
		logger.Info("classification cache uses postgres")
		return cache.NewBreakerStore("postgres", store, cfg.Breaker, logger), nil
	default:
		return nil, nil
	}
}
