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

// MasterStore keeps the master table in <dir>/master.csv.
type MasterStore struct {
	path string
}

// NewMasterStore creates a store rooted at dir.
func NewMasterStore(dir string) *MasterStore {
	return &MasterStore{path: filepath.Join(dir, MasterFile)}
}

// Compile-time interface check.
var _ storage.MasterStore = (*MasterStore)(nil)

// Path returns the backing file.
func (s *MasterStore) Path() string { return s.path }

// Replace overwrites the file with rows.
func (s *MasterStore) Replace(_ context.Context, rows []domain.MasterRow) error {
	if err := storage.ValidateMaster(rows); err != nil {
		return err
	}
	err := WriteFile(s.path, func(buf *bytes.Buffer) error {
		return WriteMasterCSV(buf, rows)
	})
	if err != nil {
		return fmt.Errorf("write master table: %w", err)
	}
	return nil
}

// Load reads the file.
func (s *MasterStore) Load(_ context.Context) ([]domain.MasterRow, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open master table: %w", err)
	}
	defer f.Close()

	rows, err := ReadMasterCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read master table %s: %w", s.path, err)
	}
	return rows, nil
}

// Exists reports whether the file is present.
func (s *MasterStore) Exists(_ context.Context) (bool, error) {
	return exists(s.path)
}

// Delete removes the file.
func (s *MasterStore) Delete(_ context.Context) error {
	return remove(s.path)
}
