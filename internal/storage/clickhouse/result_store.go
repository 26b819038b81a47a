package clickhouse

import (
	"context"
	"fmt"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage"
)

var resultTables = []string{"regression_runs", "regression_terms", "granger_results"}

// ResultStore implements storage.ResultStore using ClickHouse.
// Only the latest run is kept.
type ResultStore struct {
	conn *Conn
}

// NewResultStore creates a new ResultStore.
func NewResultStore(conn *Conn) *ResultStore {
	return &ResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Replace truncates the result tables and inserts reg and granger.
// The run row goes in last so a partial write reads as no run.
func (s *ResultStore) Replace(ctx context.Context, reg *domain.RegressionResult, granger *domain.GrangerResult) error {
	if err := storage.ValidateResult(reg); err != nil {
		return err
	}
	for _, table := range resultTables {
		if err := s.conn.Exec(ctx, "TRUNCATE TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO regression_terms (run_id, position, name, coefficient, std_error, t_stat, p_value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for i, t := range reg.Terms {
		if err := batch.Append(reg.RunID, uint16(i), t.Name, t.Coefficient, t.StdError, t.TStat, t.PValue); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	if granger != nil {
		err := s.conn.Exec(ctx, `
			INSERT INTO granger_results (
				run_id, cause, effect, shift, lag_order, n_obs, f_stat, df_num, df_denom, p_value
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			reg.RunID, granger.Cause, granger.Effect, uint32(granger.Shift), uint32(granger.Lag),
			uint32(granger.NObs), granger.FStat, uint32(granger.DFNum), uint32(granger.DFDenom), granger.PValue,
		)
		if err != nil {
			return fmt.Errorf("insert granger result: %w", err)
		}
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO regression_runs (
			run_id, target, n_obs, df_resid, df_model,
			r_squared, adj_r_squared, f_statistic, f_p_value,
			log_likelihood, aic, bic, durbin_watson, fitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		reg.RunID, reg.Target, uint32(reg.NObs), uint32(reg.DFResid), uint32(reg.DFModel),
		reg.RSquared, reg.AdjRSquared, reg.FStatistic, reg.FPValue,
		reg.LogLik, reg.AIC, reg.BIC, reg.DurbinWatson, reg.FittedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert regression run: %w", err)
	}
	return nil
}

// Load returns the stored run.
func (s *ResultStore) Load(ctx context.Context) (*domain.RegressionResult, *domain.GrangerResult, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT run_id, target, n_obs, df_resid, df_model,
			r_squared, adj_r_squared, f_statistic, f_p_value,
			log_likelihood, aic, bic, durbin_watson, fitted_at
		FROM regression_runs
		ORDER BY fitted_at DESC
		LIMIT 1
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("query regression run: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, nil, fmt.Errorf("iterate regression run: %w", err)
		}
		return nil, nil, storage.ErrNotFound
	}

	var reg domain.RegressionResult
	var nObs, dfResid, dfModel uint32
	err = rows.Scan(
		&reg.RunID, &reg.Target, &nObs, &dfResid, &dfModel,
		&reg.RSquared, &reg.AdjRSquared, &reg.FStatistic, &reg.FPValue,
		&reg.LogLik, &reg.AIC, &reg.BIC, &reg.DurbinWatson, &reg.FittedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("scan regression run: %w", err)
	}
	reg.NObs, reg.DFResid, reg.DFModel = int(nObs), int(dfResid), int(dfModel)
	reg.FittedAt = reg.FittedAt.UTC()

	if reg.Terms, err = s.loadTerms(ctx, reg.RunID); err != nil {
		return nil, nil, err
	}
	granger, err := s.loadGranger(ctx, reg.RunID)
	if err != nil {
		return nil, nil, err
	}
	return &reg, granger, nil
}

func (s *ResultStore) loadTerms(ctx context.Context, runID string) ([]domain.RegressionTerm, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT name, coefficient, std_error, t_stat, p_value
		FROM regression_terms
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query regression terms: %w", err)
	}
	defer rows.Close()

	var terms []domain.RegressionTerm
	for rows.Next() {
		var t domain.RegressionTerm
		if err := rows.Scan(&t.Name, &t.Coefficient, &t.StdError, &t.TStat, &t.PValue); err != nil {
			return nil, fmt.Errorf("scan regression term: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regression terms: %w", err)
	}
	return terms, nil
}

func (s *ResultStore) loadGranger(ctx context.Context, runID string) (*domain.GrangerResult, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT cause, effect, shift, lag_order, n_obs, f_stat, df_num, df_denom, p_value
		FROM granger_results
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query granger result: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}

	var g domain.GrangerResult
	var shift, lag, nObs, dfNum, dfDenom uint32
	if err := rows.Scan(&g.Cause, &g.Effect, &shift, &lag, &nObs, &g.FStat, &dfNum, &dfDenom, &g.PValue); err != nil {
		return nil, fmt.Errorf("scan granger result: %w", err)
	}
	g.Shift, g.Lag, g.NObs, g.DFNum, g.DFDenom = int(shift), int(lag), int(nObs), int(dfNum), int(dfDenom)
	return &g, nil
}

// Exists reports whether a run has been stored.
func (s *ResultStore) Exists(ctx context.Context) (bool, error) {
	var count uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM regression_runs`).Scan(&count); err != nil {
		return false, fmt.Errorf("check regression run: %w", err)
	}
	return count > 0, nil
}
