// Package app holds the start-up wiring shared by the command binaries:
// configuration, logger, run metrics and the raw-data cache.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"altcoin-leadlag/internal/cache"
	"altcoin-leadlag/internal/config"
	"altcoin-leadlag/internal/logging"
	"altcoin-leadlag/internal/observability"
)

// DefaultConfigPath is read when --config is not given.
const DefaultConfigPath = "config.yml"

// RawCacheDir is the raw response cache directory inside cache_dir.
const RawCacheDir = "raw"

// App is one binary invocation.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// New loads the configuration at path and builds the logger and run metrics.
func New(path string) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(""),
	}, nil
}

// Close writes the metrics textfile, if configured, and flushes the logger.
func (a *App) Close() {
	if err := a.Metrics.WriteTextfile(a.Config.Metrics.Textfile); err != nil {
		a.Logger.Warn("metrics textfile not written", zap.Error(err))
	}
	_ = a.Logger.Sync()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// RawCache opens the configured raw-data cache behind an in-process memo.
// The returned close function is never nil.
func (a *App) RawCache(ctx context.Context) (cache.Store, func(), error) {
	var (
		next    cache.Store
		closeFn = func() {}
	)
	switch a.Config.Cache.Backend {
	case config.BackendRedis:
		client, err := cache.DialRedis(ctx, a.Config.Cache.RedisAddr, a.Config.Cache.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		next = cache.NewRedisStore(client, "leadlag:", 0)
		closeFn = func() {
			if err := client.Close(); err != nil {
				a.Logger.Warn("close redis", zap.Error(err))
			}
		}
	default:
		fs, err := cache.NewFileStore(filepath.Join(a.Config.CacheDir, RawCacheDir))
		if err != nil {
			return nil, nil, err
		}
		next = fs
	}
	a.Logger.Debug("raw cache opened", zap.String("backend", a.Config.Cache.Backend))
	return cache.NewMemo(next, a.Config.Cache.MemoTTL), closeFn, nil
}
