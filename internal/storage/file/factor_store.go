package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/storage"
)

// FactorStore keeps the factor table in <dir>/factors.csv.
type FactorStore struct {
	path string
}

// NewFactorStore creates a store rooted at dir.
func NewFactorStore(dir string) *FactorStore {
	return &FactorStore{path: filepath.Join(dir, FactorsFile)}
}

// Compile-time interface check.
var _ storage.FactorStore = (*FactorStore)(nil)

// Path returns the backing file.
func (s *FactorStore) Path() string { return s.path }

// Replace overwrites the file with rows.
func (s *FactorStore) Replace(_ context.Context, rows []domain.FactorRow) error {
	if err := storage.ValidateFactors(rows); err != nil {
		return err
	}
	err := WriteFile(s.path, func(buf *bytes.Buffer) error {
		return WriteFactorsCSV(buf, rows)
	})
	if err != nil {
		return fmt.Errorf("write factor table: %w", err)
	}
	return nil
}

// Load reads the file.
func (s *FactorStore) Load(_ context.Context) ([]domain.FactorRow, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open factor table: %w", err)
	}
	defer f.Close()

	rows, err := ReadFactorsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read factor table %s: %w", s.path, err)
	}
	return rows, nil
}

// Exists reports whether the file is present.
func (s *FactorStore) Exists(_ context.Context) (bool, error) {
	return exists(s.path)
}

// Delete removes the file.
func (s *FactorStore) Delete(_ context.Context) error {
	return remove(s.path)
}
