// Package cache stores raw provider responses so that re-runs do not refetch.
//
// Values are JSON encoded. A key is derived from the request parameters with
// Key, so a change in any parameter yields a different entry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidKey is returned for empty keys or keys containing path separators.
var ErrInvalidKey = errors.New("invalid cache key")

// Store is a write-if-absent, read-if-present JSON cache.
type Store interface {
	// Get decodes the entry for key into dst. It reports false when the entry is absent.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Put stores v under key unless an entry already exists.
	Put(ctx context.Context, key string, v any) error
	// Delete removes the entry for key. Absent entries are not an error.
	Delete(ctx context.Context, key string) error
}

// Key derives a cache key from a namespace and request parameters.
// The namespace stays readable; the parameters are hashed.
func Key(namespace string, params ...string) string {
	h := sha256.New()
	for _, p := range params {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return namespace + "_" + hex.EncodeToString(h.Sum(nil))
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
