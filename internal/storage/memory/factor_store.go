package memory

import (
	"context"
	"sync"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage"
)

// FactorStore is an in-memory implementation of storage.FactorStore.
type FactorStore struct {
	mu      sync.RWMutex
	rows    []domain.FactorRow
	written bool
}

// NewFactorStore creates a new in-memory factor store.
func NewFactorStore() *FactorStore {
	return &FactorStore{}
}

// Compile-time interface check.
var _ storage.FactorStore = (*FactorStore)(nil)

// Replace overwrites the stored table. Rows are deep-copied.
func (s *FactorStore) Replace(_ context.Context, rows []domain.FactorRow) error {
	if err := storage.ValidateFactors(rows); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = copyFactorRows(rows)
	s.written = true
	return nil
}

// Load returns a deep copy of the stored rows.
func (s *FactorStore) Load(_ context.Context) ([]domain.FactorRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.written {
		return nil, storage.ErrNotFound
	}
	return copyFactorRows(s.rows), nil
}

// Exists reports whether a table has been written.
func (s *FactorStore) Exists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.written, nil
}

// Delete removes the stored table.
func (s *FactorStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.written = false
	return nil
}

func copyFactorRows(rows []domain.FactorRow) []domain.FactorRow {
	out := make([]domain.FactorRow, len(rows))
	for i, r := range rows {
		c := r
		c.ETHBTC = copyFloat(r.ETHBTC)
		c.OthersBTC = copyFloat(r.OthersBTC)
		c.OthersETH = copyFloat(r.OthersETH)
		c.ETHBTCRet = copyFloat(r.ETHBTCRet)
		c.OthersBTCRet = copyFloat(r.OthersBTCRet)
		c.BTCDomChange = copyFloat(r.BTCDomChange)
		c.MacroLiquidity = copyFloat(r.MacroLiquidity)
		out[i] = c
	}
	return out
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
