// Package backend opens the storage backend selected by configuration.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"altcoin-leadlag/internal/config"
	"altcoin-leadlag/internal/storage"
	"altcoin-leadlag/internal/storage/clickhouse"
	"altcoin-leadlag/internal/storage/file"
	"altcoin-leadlag/internal/storage/memory"
	"altcoin-leadlag/internal/storage/migrations"
	"altcoin-leadlag/internal/storage/postgres"
)

// Open returns the stores of cfg.Storage.Backend. SQL backends are migrated on open.
// The caller must call Stores.Close.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Stores, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile, "":
		logger.Info("using file storage",
			zap.String("cache_dir", cfg.CacheDir),
			zap.String("results_dir", cfg.ResultsDir))
		return storage.Stores{
			Master:  file.NewMasterStore(cfg.CacheDir),
			Factors: file.NewFactorStore(cfg.CacheDir),
			Results: file.NewResultStore(cfg.ResultsDir),
			Close:   func() {},
		}, nil

	case config.BackendMemory:
		logger.Info("using in-memory storage")
		return Memory(), nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return storage.Stores{}, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return storage.Stores{}, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info("using postgres storage")
		return storage.Stores{
			Master:  postgres.NewMasterStore(pool),
			Factors: postgres.NewFactorStore(pool),
			Results: postgres.NewResultStore(pool),
			Close:   pool.Close,
		}, nil

	case config.BackendClickhouse:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return storage.Stores{}, fmt.Errorf("migrate clickhouse: %w", err)
		}
		logger.Info("using clickhouse storage")
		return storage.Stores{
			Master:  clickhouse.NewMasterStore(conn),
			Factors: clickhouse.NewFactorStore(conn),
			Results: clickhouse.NewResultStore(conn),
			Close: func() {
				if err := conn.Close(); err != nil {
					logger.Warn("close clickhouse", zap.Error(err))
				}
			},
		}, nil
	}
	return storage.Stores{}, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// Memory returns fresh in-memory stores.
func Memory() storage.Stores {
	return storage.Stores{
		Master:  memory.NewMasterStore(),
		Factors: memory.NewFactorStore(),
		Results: memory.NewResultStore(),
		Close:   func() {},
	}
}
