package nats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcusPrado02/consist-go/core/es"
)

func storedEvent(streamID string, version es.Version, eventType string, payload string) es.StoredEvent {
	return es.StoredEvent{
		StreamID:   streamID,
		Version:    version,
		EventType:  eventType,
		Payload:    []byte(payload),
		OccurredAt: time.Now().UTC(),
	}
}

func TestEventStore(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}

	store, err := NewEventStore(EventStoreConfig{
		Connect: NewTestContainer(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	t.Run("stream config", func(t *testing.T) {
		si, err := store.stream.Info(t.Context())
		require.NoError(t, err)
		require.Equal(t, "CONSIST_ES", si.Config.Name)
		require.Equal(t, []string{defaultSubjectPrefix + ".>"}, si.Config.Subjects)
	})

	t.Run("append and load", func(t *testing.T) {
		require.NoError(t, store.Append(t.Context(), "Order-1", []es.StoredEvent{
			storedEvent("Order-1", 1, "Placed", `{"total":100}`),
			storedEvent("Order-1", 2, "Paid", `{"amount":100}`),
		}, 0))
		require.NoError(t, store.Append(t.Context(), "Order-1", []es.StoredEvent{
			storedEvent("Order-1", 3, "Shipped", `{}`),
		}, 2))

		events, err := store.Load(t.Context(), "Order-1")
		require.NoError(t, err)
		require.Len(t, events, 3)
		for i, e := range events {
			require.Equal(t, es.Version(i+1), e.Version)
		}
		require.JSONEq(t, `{"total":100}`, string(events[0].Payload))
	})

	t.Run("from version", func(t *testing.T) {
		events, err := store.Load(t.Context(), "Order-1", es.WithFromVersion(2))
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, es.Version(3), events[0].Version)
	})

	t.Run("concurrency conflict", func(t *testing.T) {
		err := store.Append(t.Context(), "Order-1", []es.StoredEvent{
			storedEvent("Order-1", 1, "Placed", `{}`),
		}, 0)
		require.ErrorIs(t, err, es.ErrConcurrencyConflict)

		var conflict *es.ConcurrencyError
		require.ErrorAs(t, err, &conflict)
		require.Equal(t, es.Version(3), conflict.Actual)
	})

	t.Run("unknown stream", func(t *testing.T) {
		events, err := store.Load(t.Context(), "nope")
		require.NoError(t, err)
		require.Empty(t, events)
	})

	t.Run("empty batch", func(t *testing.T) {
		err := store.Append(t.Context(), "Order-1", nil, 3)
		require.ErrorIs(t, err, es.ErrNoEvents)
	})
}

func TestSanitizeToken(t *testing.T) {
	require.Equal(t, "Order-1", sanitizeToken("Order-1"))
	require.Equal(t, "a_b_c_d_e", sanitizeToken("a.b*c>d e"))
}
