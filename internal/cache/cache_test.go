package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Prices [][2]float64 `json:"prices"`
	Name   string       `json:"name"`
}

func TestKey_Deterministic(t *testing.T) {
	a := Key("market_chart", "bitcoin", "2019-01-01", "2025-07-31")
	b := Key("market_chart", "bitcoin", "2019-01-01", "2025-07-31")
	c := Key("market_chart", "bitcoin", "2019-01-02", "2025-07-31")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "market_chart_"))
	// Parameter boundaries matter.
	assert.NotEqual(t, Key("x", "ab", "c"), Key("x", "a", "bc"))
}

func TestFileStore_WriteIfAbsent(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var got payload
	found, err := store.Get(ctx, "k1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	first := payload{Prices: [][2]float64{{1, 2}}, Name: "first"}
	require.NoError(t, store.Put(ctx, "k1", first))
	require.NoError(t, store.Put(ctx, "k1", payload{Name: "second"}))

	found, err = store.Get(ctx, "k1", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first, got)

	require.NoError(t, store.Delete(ctx, "k1"))
	require.NoError(t, store.Delete(ctx, "k1"))
	found, err = store.Get(ctx, "k1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStore_InvalidKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b"} {
		_, err := store.Get(context.Background(), key, &payload{})
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

// countingStore counts lookups reaching the wrapped store.
type countingStore struct {
	Store
	gets int
}

func (c *countingStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.gets++
	return c.Store.Get(ctx, key, dst)
}

func TestMemo_ServesRepeatedReadsLocally(t *testing.T) {
	ctx := context.Background()
	files, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	backing := &countingStore{Store: files}
	memo := NewMemo(backing, time.Minute)

	require.NoError(t, memo.Put(ctx, "k", payload{Name: "eth"}))

	for i := 0; i < 3; i++ {
		var got payload
		found, err := memo.Get(ctx, "k", &got)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "eth", got.Name)
	}
	assert.Equal(t, 1, backing.gets)

	var missing payload
	found, err := memo.Get(ctx, "absent", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, memo.Delete(ctx, "k"))
	found, err = memo.Get(ctx, "k", &missing)
	require.NoError(t, err)
	assert.False(t, found)
}
