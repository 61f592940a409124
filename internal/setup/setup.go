// Package setup bootstraps the application dependencies in order.
package setup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/cache"
	"github.com/beatbot/statecache/internal/redis"
	"github.com/beatbot/statecache/internal/setup/config"
	"github.com/beatbot/statecache/internal/setup/telemetry"
)

// App bundles the core dependencies every entrypoint needs. It is
// constructed once at startup and passed down explicitly; nothing in the
// repository reaches for ambient global state.
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	RedisManager *redis.Manager
	Cache        *cache.Client
	Stats        *cache.Statistics
	Dispatcher   *cache.Dispatcher
}

// InitializeApp loads configuration, builds the logger, verifies the store
// is reachable, and wires the cache stack. Failures here are fatal by
// design: the process must not start half-connected.
func InitializeApp(ctx context.Context) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(cfg.Debug.LogLevel)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("configDir", configDir))

	redisManager := redis.NewManager(&cfg.Redis, logger)
	if err := redisManager.VerifyConnection(ctx, redis.CacheDBIndex); err != nil {
		return nil, fmt.Errorf("%w: %w", cache.ErrConnection, err)
	}

	cacheRedis, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cache.ErrConnection, err)
	}

	codec := cache.NewCodec(logger, cfg.Debug.CodecInstrumentation)
	cacheClient := cache.NewClient(cacheRedis, codec, cache.ColdResumeOptions{
		TTL:            time.Duration(cfg.Cache.ColdResumeTTL) * time.Second,
		GuildsPerChunk: cfg.Cache.GuildsPerChunk,
	}, logger)

	stats, err := cache.NewStatistics(ctx, cacheClient, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		RedisManager: redisManager,
		Cache:        cacheClient,
		Stats:        stats,
		Dispatcher:   cache.NewDispatcher(cacheClient, stats, logger),
	}, nil
}

// CleanupApp tears the application down in reverse construction order.
func (a *App) CleanupApp() {
	a.RedisManager.Close()
	_ = a.Logger.Sync()
}
