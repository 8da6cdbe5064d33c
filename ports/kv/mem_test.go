package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	_, err := store.Get(ctx, "k1")
	require.ErrorIs(t, err, ErrNotFound)

	entry := Entry{Data: []byte(`{"a":1}`), Meta: map[string]any{"source": "test"}}
	require.NoError(t, store.Put(ctx, "k1", entry, PutOptions{}))

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, entry, got)

	require.NoError(t, store.Delete(ctx, "k1"))
	_, err = store.Get(ctx, "k1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	require.NoError(t, store.Put(ctx, "k1", Entry{Data: []byte(`1`)}, PutOptions{
		TTL: 10 * time.Millisecond,
	}))

	_, err := store.Get(ctx, "k1")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = store.Get(ctx, "k1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGenericHelpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, Put(ctx, store, "k1", payload{Name: "a"}, PutOptions{}))

	got, err := Get[payload](ctx, store, "k1")
	require.NoError(t, err)
	require.Equal(t, "a", got.Name)

	_, err = Get[payload](ctx, store, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
