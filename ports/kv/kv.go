// Package kv defines a small key-value port consumed by the snapshot and
// saga stores. Implementations: MemStore (here), adapters/badger,
// adapters/nats (JetStream KV).
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Entry is the stored unit. Meta carries backend-agnostic annotations and
// round-trips with the data.
type Entry struct {
	Data []byte         `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

type PutOptions struct {
	// TTL expires the entry after the given duration. Zero means no expiry.
	// Backends without per-key expiry may apply it at a coarser granularity
	// or ignore it.
	TTL time.Duration
}

type Store interface {
	Put(ctx context.Context, key string, entry Entry, opts PutOptions) error
	Get(ctx context.Context, key string) (Entry, error)
	Delete(ctx context.Context, key string) error
}

// Put marshals v as JSON and stores it under key.
func Put[T any](ctx context.Context, store Store, key string, v T, opts PutOptions) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, Entry{Data: data}, opts)
}

// Get loads key and unmarshals its JSON data into T.
func Get[T any](ctx context.Context, store Store, key string) (out T, err error) {
	entry, err := store.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err = json.Unmarshal(entry.Data, &out); err != nil {
		return out, err
	}
	return out, nil
}
