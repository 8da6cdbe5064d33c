package es

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcusPrado02/consist-go/ports/kv"
)

// KVSnapshotStore persists snapshots in any kv.Store (JetStream KV, Badger,
// MemStore).
type KVSnapshotStore struct {
	store kv.Store
}

func NewKVSnapshotStore(store kv.Store) *KVSnapshotStore {
	return &KVSnapshotStore{store: store}
}

func (s *KVSnapshotStore) Take(ctx context.Context, streamID string, version Version, state []byte) error {
	rec := SnapshotRecord{
		StreamID: streamID,
		Version:  version,
		State:    state,
		TakenAt:  time.Now().UTC(),
	}
	if err := kv.Put(ctx, s.store, snapshotKey(streamID), rec, kv.PutOptions{}); err != nil {
		return fmt.Errorf("take snapshot %s: %w", streamID, err)
	}
	return nil
}

func (s *KVSnapshotStore) Latest(ctx context.Context, streamID string) (*SnapshotRecord, error) {
	rec, err := kv.Get[SnapshotRecord](ctx, s.store, snapshotKey(streamID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func snapshotKey(streamID string) string { return "snapshot." + streamID }

var _ SnapshotStore = (*KVSnapshotStore)(nil)
