package memory

import (
	"context"
	"sync"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu      sync.RWMutex
	reg     *domain.RegressionResult
	granger *domain.GrangerResult
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Replace overwrites the stored run.
func (s *ResultStore) Replace(_ context.Context, reg *domain.RegressionResult, granger *domain.GrangerResult) error {
	if err := storage.ValidateResult(reg); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	regCopy := *reg
	regCopy.Terms = append([]domain.RegressionTerm(nil), reg.Terms...)
	s.reg = &regCopy
	s.granger = nil
	if granger != nil {
		g := *granger
		s.granger = &g
	}
	return nil
}

// Load returns copies of the stored run.
func (s *ResultStore) Load(_ context.Context) (*domain.RegressionResult, *domain.GrangerResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reg == nil {
		return nil, nil, storage.ErrNotFound
	}
	regCopy := *s.reg
	regCopy.Terms = append([]domain.RegressionTerm(nil), s.reg.Terms...)
	var granger *domain.GrangerResult
	if s.granger != nil {
		g := *s.granger
		granger = &g
	}
	return &regCopy, granger, nil
}

// Exists reports whether a run has been stored.
func (s *ResultStore) Exists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg != nil, nil
}
