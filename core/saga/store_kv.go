package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcusPrado02/consist-go/ports/kv"
)

// KVStore persists the latest saga record in any kv.Store. Each Save
// overwrites the previous transition, so only the newest state survives.
type KVStore struct {
	store kv.Store
}

func NewKVStore(store kv.Store) *KVStore {
	return &KVStore{store: store}
}

func (s *KVStore) Save(ctx context.Context, sagaID string, state State, stepIndex int, snapshot map[string]any) error {
	rec := Record{
		SagaID:    sagaID,
		State:     state,
		StepIndex: stepIndex,
		Context:   snapshot,
		UpdatedAt: time.Now().UTC(),
	}
	if err := kv.Put(ctx, s.store, sagaKey(sagaID), rec, kv.PutOptions{}); err != nil {
		return fmt.Errorf("save saga %s: %w", sagaID, err)
	}
	return nil
}

func (s *KVStore) Load(ctx context.Context, sagaID string) (*Record, error) {
	rec, err := kv.Get[Record](ctx, s.store, sagaKey(sagaID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrSagaNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func sagaKey(sagaID string) string { return "saga." + sagaID }

var _ Store = (*KVStore)(nil)
