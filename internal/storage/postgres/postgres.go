// Package postgres implements the storage interfaces on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// replaceTable truncates table and copies rows into it in one transaction,
// then records the write in table_writes.
func (p *Pool) replaceTable(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{table}.Sanitize()); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy into %s: %w", table, err)
		}
	}
	if err := markWritten(ctx, tx, table, len(rows)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func markWritten(ctx context.Context, tx pgx.Tx, table string, n int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO table_writes (name, row_count, written_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET row_count = EXCLUDED.row_count, written_at = EXCLUDED.written_at
	`, table, n)
	if err != nil {
		return fmt.Errorf("mark %s written: %w", table, err)
	}
	return nil
}

// written reports whether table has a table_writes marker.
func (p *Pool) written(ctx context.Context, table string) (bool, error) {
	var n int
	err := p.QueryRow(ctx, `SELECT row_count FROM table_writes WHERE name = $1`, table).Scan(&n)
	if isNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s written: %w", table, err)
	}
	return true, nil
}

// dropTable empties table and clears its marker.
func (p *Pool) dropTable(ctx context.Context, table string) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{table}.Sanitize()); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM table_writes WHERE name = $1`, table); err != nil {
		return fmt.Errorf("clear %s marker: %w", table, err)
	}
	return tx.Commit(ctx)
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
