package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
// Only the latest run is kept.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Replace deletes the previous run and inserts reg and granger atomically.
func (s *ResultStore) Replace(ctx context.Context, reg *domain.RegressionResult, granger *domain.GrangerResult) error {
	if err := storage.ValidateResult(reg); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Terms and Granger rows cascade.
	if _, err := tx.Exec(ctx, `DELETE FROM regression_runs`); err != nil {
		return fmt.Errorf("delete previous run: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO regression_runs (
			run_id, target, n_obs, df_resid, df_model,
			r_squared, adj_r_squared, f_statistic, f_p_value,
			log_likelihood, aic, bic, durbin_watson, fitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		reg.RunID, reg.Target, reg.NObs, reg.DFResid, reg.DFModel,
		reg.RSquared, reg.AdjRSquared, reg.FStatistic, reg.FPValue,
		reg.LogLik, reg.AIC, reg.BIC, reg.DurbinWatson, reg.FittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert regression run: %w", err)
	}

	terms := make([][]any, len(reg.Terms))
	for i, t := range reg.Terms {
		terms[i] = []any{reg.RunID, i, t.Name, t.Coefficient, t.StdError, t.TStat, t.PValue}
	}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"regression_terms"},
		[]string{"run_id", "position", "name", "coefficient", "std_error", "t_stat", "p_value"},
		pgx.CopyFromRows(terms))
	if err != nil {
		return fmt.Errorf("copy regression terms: %w", err)
	}

	if granger != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO granger_results (
				run_id, cause, effect, shift, lag_order, n_obs, f_stat, df_num, df_denom, p_value
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			reg.RunID, granger.Cause, granger.Effect, granger.Shift, granger.Lag,
			granger.NObs, granger.FStat, granger.DFNum, granger.DFDenom, granger.PValue,
		)
		if err != nil {
			return fmt.Errorf("insert granger result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Load returns the stored run.
func (s *ResultStore) Load(ctx context.Context) (*domain.RegressionResult, *domain.GrangerResult, error) {
	var reg domain.RegressionResult
	err := s.pool.QueryRow(ctx, `
		SELECT run_id, target, n_obs, df_resid, df_model,
			r_squared, adj_r_squared, f_statistic, f_p_value,
			log_likelihood, aic, bic, durbin_watson, fitted_at
		FROM regression_runs
		ORDER BY fitted_at DESC
		LIMIT 1
	`).Scan(
		&reg.RunID, &reg.Target, &reg.NObs, &reg.DFResid, &reg.DFModel,
		&reg.RSquared, &reg.AdjRSquared, &reg.FStatistic, &reg.FPValue,
		&reg.LogLik, &reg.AIC, &reg.BIC, &reg.DurbinWatson, &reg.FittedAt,
	)
	if isNotFoundError(err) {
		return nil, nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query regression run: %w", err)
	}
	reg.FittedAt = reg.FittedAt.UTC()

	rows, err := s.pool.Query(ctx, `
		SELECT name, coefficient, std_error, t_stat, p_value
		FROM regression_terms
		WHERE run_id = $1
		ORDER BY position ASC
	`, reg.RunID)
	if err != nil {
		return nil, nil, fmt.Errorf("query regression terms: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t domain.RegressionTerm
		if err := rows.Scan(&t.Name, &t.Coefficient, &t.StdError, &t.TStat, &t.PValue); err != nil {
			return nil, nil, fmt.Errorf("scan regression term: %w", err)
		}
		reg.Terms = append(reg.Terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate regression terms: %w", err)
	}

	var g domain.GrangerResult
	err = s.pool.QueryRow(ctx, `
		SELECT cause, effect, shift, lag_order, n_obs, f_stat, df_num, df_denom, p_value
		FROM granger_results
		WHERE run_id = $1
	`, reg.RunID).Scan(&g.Cause, &g.Effect, &g.Shift, &g.Lag, &g.NObs, &g.FStat, &g.DFNum, &g.DFDenom, &g.PValue)
	if isNotFoundError(err) {
		return &reg, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query granger result: %w", err)
	}
	return &reg, &g, nil
}

// Exists reports whether a run has been stored.
func (s *ResultStore) Exists(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM regression_runs)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check regression run: %w", err)
	}
	return exists, nil
}
