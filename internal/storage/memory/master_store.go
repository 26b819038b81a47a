package memory

import (
	"context"
	"sync"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage"
)

// MasterStore is an in-memory implementation of storage.MasterStore.
type MasterStore struct {
	mu      sync.RWMutex
	rows    []domain.MasterRow
	written bool
}

// NewMasterStore creates a new in-memory master store.
func NewMasterStore() *MasterStore {
	return &MasterStore{}
}

// Compile-time interface check.
var _ storage.MasterStore = (*MasterStore)(nil)

// Replace overwrites the stored table.
func (s *MasterStore) Replace(_ context.Context, rows []domain.MasterRow) error {
	if err := storage.ValidateMaster(rows); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]domain.MasterRow(nil), rows...)
	s.written = true
	return nil
}

// Load returns a copy of the stored rows.
func (s *MasterStore) Load(_ context.Context) ([]domain.MasterRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.written {
		return nil, storage.ErrNotFound
	}
	return append([]domain.MasterRow(nil), s.rows...), nil
}

// Exists reports whether a table has been written.
func (s *MasterStore) Exists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.written, nil
}

// Delete removes the stored table.
func (s *MasterStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.written = false
	return nil
}
