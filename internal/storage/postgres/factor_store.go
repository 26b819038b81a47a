package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage"
)

const factorTable = "factor_rows"

var factorColumns = []string{
	"date", "btc_cap", "eth_cap", "total_cap", "others_cap", "btc_dom", "eth_dom", "macro_return",
	"eth_btc", "others_btc", "others_eth",
	"eth_btc_ret", "others_btc_ret", "btc_dom_change", "macro_liquidity",
	"quality_ratio", "quality_alpha",
}

// FactorStore implements storage.FactorStore using PostgreSQL.
type FactorStore struct {
	pool *Pool
}

// NewFactorStore creates a new FactorStore.
func NewFactorStore(pool *Pool) *FactorStore {
	return &FactorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FactorStore = (*FactorStore)(nil)

// Replace truncates the table and copies rows in. Undefined factors are stored as NULL.
func (s *FactorStore) Replace(ctx context.Context, rows []domain.FactorRow) error {
	if err := storage.ValidateFactors(rows); err != nil {
		return err
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{
			r.Date, r.BTCCap, r.ETHCap, r.TotalCap, r.OthersCap, r.BTCDom, r.ETHDom, r.MacroReturn,
			r.ETHBTC, r.OthersBTC, r.OthersETH,
			r.ETHBTCRet, r.OthersBTCRet, r.BTCDomChange, r.MacroLiquidity,
			r.QualityRatio, r.QualityAlpha,
		}
	}
	if err := s.pool.replaceTable(ctx, factorTable, factorColumns, values); err != nil {
		return fmt.Errorf("replace factor table: %w", err)
	}
	return nil
}

// Load returns all rows ordered by date ASC.
func (s *FactorStore) Load(ctx context.Context) ([]domain.FactorRow, error) {
	ok, err := s.pool.written(ctx, factorTable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNotFound
	}

	rows, err := s.pool.Query(ctx, `
		SELECT date, btc_cap, eth_cap, total_cap, others_cap, btc_dom, eth_dom, macro_return,
			eth_btc, others_btc, others_eth,
			eth_btc_ret, others_btc_ret, btc_dom_change, macro_liquidity,
			quality_ratio, quality_alpha
		FROM factor_rows
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query factor rows: %w", err)
	}
	defer rows.Close()

	return scanFactorRows(rows)
}

// Exists reports whether the table has been written.
func (s *FactorStore) Exists(ctx context.Context) (bool, error) {
	return s.pool.written(ctx, factorTable)
}

// Delete empties the table.
func (s *FactorStore) Delete(ctx context.Context) error {
	return s.pool.dropTable(ctx, factorTable)
}

func scanFactorRows(rows pgx.Rows) ([]domain.FactorRow, error) {
	var out []domain.FactorRow
	for rows.Next() {
		var r domain.FactorRow
		err := rows.Scan(
			&r.Date, &r.BTCCap, &r.ETHCap, &r.TotalCap, &r.OthersCap, &r.BTCDom, &r.ETHDom, &r.MacroReturn,
			&r.ETHBTC, &r.OthersBTC, &r.OthersETH,
			&r.ETHBTCRet, &r.OthersBTCRet, &r.BTCDomChange, &r.MacroLiquidity,
			&r.QualityRatio, &r.QualityAlpha,
		)
		if err != nil {
			return nil, fmt.Errorf("scan factor row: %w", err)
		}
		r.Date = r.Date.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate factor rows: %w", err)
	}
	return out, nil
}
