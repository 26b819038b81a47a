package storage

import (
	"context"

	"altcoin-leadlag/internal/domain"
)

// MasterStore persists the master table. Writes replace the whole table.
type MasterStore interface {
	// Replace overwrites the stored table with rows.
	Replace(ctx context.Context, rows []domain.MasterRow) error

	// Load returns all rows ordered by date ASC. Returns ErrNotFound if the table was never written.
	Load(ctx context.Context) ([]domain.MasterRow, error)

	// Exists reports whether a table has been written.
	Exists(ctx context.Context) (bool, error)

	// Delete removes the stored table. Deleting an absent table is not an error.
	Delete(ctx context.Context) error
}

// FactorStore persists the factor table. Writes replace the whole table.
type FactorStore interface {
	// Replace overwrites the stored table with rows.
	Replace(ctx context.Context, rows []domain.FactorRow) error

	// Load returns all rows ordered by date ASC. Returns ErrNotFound if the table was never written.
	Load(ctx context.Context) ([]domain.FactorRow, error)

	// Exists reports whether a table has been written.
	Exists(ctx context.Context) (bool, error)

	// Delete removes the stored table. Deleting an absent table is not an error.
	Delete(ctx context.Context) error
}

// ResultStore persists the latest model run: one regression and its lead-lag test.
type ResultStore interface {
	// Replace overwrites the stored run. granger may be nil.
	Replace(ctx context.Context, reg *domain.RegressionResult, granger *domain.GrangerResult) error

	// Load returns the stored run. Returns ErrNotFound if no run was stored.
	Load(ctx context.Context) (*domain.RegressionResult, *domain.GrangerResult, error)

	// Exists reports whether a run has been stored.
	Exists(ctx context.Context) (bool, error)
}

// Stores bundles the stores of one backend.
type Stores struct {
	Master  MasterStore
	Factors FactorStore
	Results ResultStore

	// Close releases backend resources. Never nil.
	Close func()
}
