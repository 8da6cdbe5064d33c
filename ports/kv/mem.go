package kv

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store for tests and local development.
// TTL is honored lazily: expired entries are dropped on read.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

type memEntry struct {
	entry     Entry
	expiresAt time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{entries: map[string]memEntry{}}
}

func (m *MemStore) Put(_ context.Context, key string, entry Entry, opts PutOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	me := memEntry{entry: entry}
	if opts.TTL > 0 {
		me.expiresAt = time.Now().Add(opts.TTL)
	}
	m.entries[key] = me
	return nil
}

func (m *MemStore) Get(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	me, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return Entry{}, ErrNotFound
	}
	if !me.expiresAt.IsZero() && time.Now().After(me.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return Entry{}, ErrNotFound
	}
	return me.entry, nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

var _ Store = (*MemStore)(nil)
