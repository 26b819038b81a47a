package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memo is an in-process TTL layer in front of another Store.
// It keeps the encoded bytes so callers never share decoded values.
type Memo struct {
	next  Store
	local *gocache.Cache
}

// NewMemo wraps next with an in-memory layer whose entries expire after ttl.
func NewMemo(next Store, ttl time.Duration) *Memo {
	return &Memo{
		next:  next,
		local: gocache.New(ttl, 2*ttl),
	}
}

// Get implements Store.
func (m *Memo) Get(ctx context.Context, key string, dst any) (bool, error) {
	if raw, ok := m.local.Get(key); ok {
		if err := json.Unmarshal(raw.([]byte), dst); err != nil {
			return false, fmt.Errorf("decode memo %s: %w", key, err)
		}
		return true, nil
	}

	var raw json.RawMessage
	found, err := m.next.Get(ctx, key, &raw)
	if err != nil || !found {
		return found, err
	}
	m.local.SetDefault(key, []byte(raw))
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

// Put implements Store.
func (m *Memo) Put(ctx context.Context, key string, v any) error {
	if err := m.next.Put(ctx, key, v); err != nil {
		return err
	}
	m.local.Delete(key)
	return nil
}

// Delete implements Store.
func (m *Memo) Delete(ctx context.Context, key string) error {
	m.local.Delete(key)
	return m.next.Delete(ctx, key)
}

// Compile-time interface check.
var _ Store = (*Memo)(nil)
