package es

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProjectAll(t *testing.T) {
	ctx := context.Background()

	// Read model: paid total per stream.
	totals := map[string]int{}
	p := ProjectorFunc(func(_ context.Context, e StoredEvent) error {
		if e.EventType != "orderPaid" {
			return nil
		}
		var ev orderPaid
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return err
		}
		totals[e.StreamID] += ev.Amount
		return nil
	})

	events := []StoredEvent{
		storedEvent(t, "Order-1", 1, "orderPlaced", map[string]any{"total": 100}),
		storedEvent(t, "Order-1", 2, "orderPaid", map[string]any{"amount": 30}),
		storedEvent(t, "Order-1", 3, "orderPaid", map[string]any{"amount": 20}),
	}
	require.NoError(t, ProjectAll(ctx, p, events))
	require.Equal(t, 50, totals["Order-1"])
}

func TestProjectAll_EmptyInput(t *testing.T) {
	p := ProjectorFunc(func(context.Context, StoredEvent) error {
		t.Fatal("must not be called")
		return nil
	})
	require.NoError(t, ProjectAll(context.Background(), p, nil))
}

func TestProjectAll_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	var seen []Version
	p := ProjectorFunc(func(_ context.Context, e StoredEvent) error {
		seen = append(seen, e.Version)
		if e.Version == 2 {
			return boom
		}
		return nil
	})

	events := []StoredEvent{
		{StreamID: "Order-1", Version: 1, EventType: "Placed", OccurredAt: time.Now()},
		{StreamID: "Order-1", Version: 2, EventType: "Paid", OccurredAt: time.Now()},
		{StreamID: "Order-1", Version: 3, EventType: "Shipped", OccurredAt: time.Now()},
	}
	err := ProjectAll(context.Background(), p, events)
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "project Order-1 v2")
	require.Equal(t, []Version{1, 2}, seen)
}
