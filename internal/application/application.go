// Package application assembles the runtime pieces shared by the server and
// the CLI: the connection pool, schema migrations, the optional report cache
// and the core service.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/timesheet/internal/cache"
	"github.com/JonMunkholm/timesheet/internal/config"
	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/logging"
)

// App holds everything a process needs to serve timesheet operations.
type App struct {
	Config  *config.Config
	Pool    *pgxpool.Pool
	Queries *database.Queries
	Service *core.Service
	Cache   *cache.ReportCache // nil when REDIS_URL is unset or unreachable
	Logger  *slog.Logger

	redis *redis.Client
}

// Options adjusts Open.
type Options struct {
	// Migrate overrides cfg.Database.MigrateOnStart when set.
	Migrate *bool
}

// Open connects to PostgreSQL (and Redis when configured), applies pending
// migrations and builds the service. Close releases everything.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	logger = logging.OrDiscard(logger)

	poolConfig, err := PoolConfig(cfg.Database)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database", "name", databaseName(cfg.Database.URL))

	migrate := cfg.Database.MigrateOnStart
	if opts.Migrate != nil {
		migrate = *opts.Migrate
	}
	if migrate {
		applied, err := database.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", "versions", applied)
		}
	}

	app := &App{
		Config:  cfg,
		Pool:    pool,
		Queries: database.New(pool),
		Logger:  logger,
	}

	var reportCache core.ReportCache
	if cfg.Cache.RedisURL != "" {
		client, err := cache.Open(ctx, cfg.Cache.RedisURL)
		if err != nil {
			// Reports still work uncached.
			logger.Warn("report cache disabled", "error", err)
		} else {
			app.redis = client
			app.Cache = cache.New(client, cfg.Cache.TTL, logger)
			reportCache = app.Cache
			logger.Info("report cache enabled", "ttl", cfg.Cache.TTL)
		}
	}

	app.Service = core.NewService(database.NewStore(pool), ServiceConfig(cfg, reportCache), logger)
	return app, nil
}

// Close releases the Redis client and the pool.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("close redis", "error", err)
		}
	}
	a.Pool.Close()
}

// PoolConfig parses the database URL and applies the pool limits.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	return poolConfig, nil
}

// ServiceConfig maps the import settings onto core.ServiceConfig.
// reportCache may be nil.
func ServiceConfig(cfg *config.Config, reportCache core.ReportCache) core.ServiceConfig {
	return core.ServiceConfig{
		Import: core.ImporterConfig{
			BatchSize: cfg.Import.BatchSize,
			Defaults: core.Defaults{
				Customer:    cfg.Import.DefaultCustomer,
				Project:     cfg.Import.DefaultProject,
				EmailDomain: cfg.Import.PlaceholderEmailDomain,
			},
		},
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		ImportTimeout: cfg.Import.Timeout,
		MaxFileSize:   cfg.Import.MaxFileSize,
		Cache:         reportCache,
	}
}

// DropDirConfig maps the watch settings onto core.DropDirConfig.
func DropDirConfig(cfg *config.Config) core.DropDirConfig {
	return core.DropDirConfig{
		Dir:      cfg.Import.WatchDir,
		Interval: cfg.Import.WatchInterval,
	}
}

// databaseName returns the database part of a connection URL for logging.
func databaseName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
