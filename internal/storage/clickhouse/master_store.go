package clickhouse

import (
	"context"
	"fmt"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage"
)

const masterTable = "master_rows"

var masterColumns = []string{
	"date", "btc_cap", "eth_cap", "total_cap", "others_cap", "btc_dom", "eth_dom", "macro_return",
}

// MasterStore implements storage.MasterStore using ClickHouse.
type MasterStore struct {
	conn *Conn
}

// NewMasterStore creates a new MasterStore.
func NewMasterStore(conn *Conn) *MasterStore {
	return &MasterStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MasterStore = (*MasterStore)(nil)

// Replace truncates the table and batch-inserts rows.
func (s *MasterStore) Replace(ctx context.Context, rows []domain.MasterRow) error {
	if err := storage.ValidateMaster(rows); err != nil {
		return err
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{
			r.Date, r.BTCCap, r.ETHCap, r.TotalCap, r.OthersCap, r.BTCDom, r.ETHDom, r.MacroReturn,
		}
	}
	if err := s.conn.replaceTable(ctx, masterTable, masterColumns, values); err != nil {
		return fmt.Errorf("replace master table: %w", err)
	}
	return nil
}

// Load returns all rows ordered by date ASC.
func (s *MasterStore) Load(ctx context.Context) ([]domain.MasterRow, error) {
	ok, err := s.conn.written(ctx, masterTable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNotFound
	}

	rows, err := s.conn.Query(ctx, `
		SELECT date, btc_cap, eth_cap, total_cap, others_cap, btc_dom, eth_dom, macro_return
		FROM master_rows
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query master rows: %w", err)
	}
	defer rows.Close()

	return scanMasterRows(rows)
}

// Exists reports whether the table has been written.
func (s *MasterStore) Exists(ctx context.Context) (bool, error) {
	return s.conn.written(ctx, masterTable)
}

// Delete empties the table.
func (s *MasterStore) Delete(ctx context.Context) error {
	return s.conn.dropTable(ctx, masterTable)
}

func scanMasterRows(rows chRows) ([]domain.MasterRow, error) {
	var out []domain.MasterRow
	for rows.Next() {
		var r domain.MasterRow
		err := rows.Scan(&r.Date, &r.BTCCap, &r.ETHCap, &r.TotalCap, &r.OthersCap, &r.BTCDom, &r.ETHDom, &r.MacroReturn)
		if err != nil {
			return nil, fmt.Errorf("scan master row: %w", err)
		}
		r.Date = r.Date.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate master rows: %w", err)
	}
	return out, nil
}
