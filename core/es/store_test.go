package es

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func storedEvent(t *testing.T, streamID string, version Version, eventType string, payload any) StoredEvent {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return StoredEvent{
		StreamID:   streamID,
		Version:    version,
		EventType:  eventType,
		Payload:    data,
		OccurredAt: time.Now().UTC(),
	}
}

func TestInMemoryStore_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Append(ctx, "Order-1", []StoredEvent{
		storedEvent(t, "Order-1", 1, "Placed", map[string]any{"total": 100}),
		storedEvent(t, "Order-1", 2, "Paid", map[string]any{"amount": 100}),
	}, 0))
	require.NoError(t, store.Append(ctx, "Order-1", []StoredEvent{
		storedEvent(t, "Order-1", 3, "Shipped", nil),
	}, 2))

	require.Equal(t, Version(3), store.StreamVersion("Order-1"))

	events, err := store.Load(ctx, "Order-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		require.Equal(t, Version(i+1), e.Version)
	}
	require.Equal(t, "Placed", events[0].EventType)
	require.JSONEq(t, `{"total":100}`, string(events[0].Payload))
}

func TestInMemoryStore_ConcurrencyConflict(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	ev := storedEvent(t, "Order-1", 1, "Placed", map[string]any{"total": 100})
	require.NoError(t, store.Append(ctx, "Order-1", []StoredEvent{ev}, 0))

	// Same expected version again: the stream has moved on.
	err := store.Append(ctx, "Order-1", []StoredEvent{ev}, 0)
	require.ErrorIs(t, err, ErrConcurrencyConflict)

	var conflict *ConcurrencyError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "Order-1", conflict.StreamID)
	require.Equal(t, Version(0), conflict.Expected)
	require.Equal(t, Version(1), conflict.Actual)

	require.Equal(t, Version(1), store.StreamVersion("Order-1"))
}

func TestInMemoryStore_EmptyBatch(t *testing.T) {
	store := NewInMemoryStore()
	err := store.Append(context.Background(), "Order-1", nil, 0)
	require.ErrorIs(t, err, ErrNoEvents)
}

func TestInMemoryStore_UnknownStream(t *testing.T) {
	events, err := NewInMemoryStore().Load(context.Background(), "nope")
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestInMemoryStore_FromVersion(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Append(ctx, "Order-1", []StoredEvent{
		storedEvent(t, "Order-1", 1, "Placed", nil),
		storedEvent(t, "Order-1", 2, "Paid", nil),
		storedEvent(t, "Order-1", 3, "Shipped", nil),
	}, 0))

	events, err := store.Load(ctx, "Order-1", WithFromVersion(1))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, Version(2), events[0].Version)
	require.Equal(t, Version(3), events[1].Version)

	events, err = store.Load(ctx, "Order-1", WithFromVersion(3))
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestInMemoryStore_BatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	// Second event carries a broken version; nothing must be committed.
	err := store.Append(ctx, "Order-1", []StoredEvent{
		storedEvent(t, "Order-1", 1, "Placed", nil),
		storedEvent(t, "Order-1", 5, "Paid", nil),
	}, 0)
	require.ErrorContains(t, err, "version 5, want 2")
	require.Equal(t, Version(0), store.StreamVersion("Order-1"))
}

func TestInMemoryStore_RejectsInvalidEvent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	tests := []struct {
		name  string
		event StoredEvent
	}{
		{"empty stream id", StoredEvent{Version: 1, EventType: "Placed", OccurredAt: time.Now()}},
		{"zero version", StoredEvent{StreamID: "Order-1", EventType: "Placed", OccurredAt: time.Now()}},
		{"empty type", StoredEvent{StreamID: "Order-1", Version: 1, OccurredAt: time.Now()}},
		{"zero time", StoredEvent{StreamID: "Order-1", Version: 1, EventType: "Placed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Append(ctx, "Order-1", []StoredEvent{tt.event}, 0)
			require.Error(t, err)
			require.Equal(t, Version(0), store.StreamVersion("Order-1"))
		})
	}
}

func TestInMemoryStore_MismatchedStreamID(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	err := store.Append(ctx, "Order-1", []StoredEvent{
		storedEvent(t, "Order-2", 1, "Placed", nil),
	}, 0)
	require.ErrorContains(t, err, "does not match")
}
