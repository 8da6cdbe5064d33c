package cqrs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type placeOrder struct {
	OrderID string
	Total   int
}

type getOrderTotal struct {
	OrderID string
}

func TestBus_Commands(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()

	var handled []placeOrder
	require.NoError(t, RegisterCommand(bus, func(_ context.Context, cmd placeOrder) error {
		handled = append(handled, cmd)
		return nil
	}))

	require.NoError(t, bus.Dispatch(ctx, placeOrder{OrderID: "42", Total: 100}))
	require.Len(t, handled, 1)
	require.Equal(t, "42", handled[0].OrderID)
}

func TestBus_DuplicateCommandHandler(t *testing.T) {
	bus := NewBus()
	h := func(context.Context, placeOrder) error { return nil }

	require.NoError(t, RegisterCommand(bus, h))
	require.ErrorContains(t, RegisterCommand(bus, h), "already has a handler")
}

func TestBus_NoHandler(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()

	err := bus.Dispatch(ctx, placeOrder{})
	require.ErrorIs(t, err, ErrNoHandler)
	require.ErrorContains(t, err, "placeOrder")

	_, err = bus.Ask(ctx, getOrderTotal{})
	require.ErrorIs(t, err, ErrNoHandler)
}

func TestBus_HandlerErrorPropagates(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()
	boom := errors.New("boom")

	require.NoError(t, RegisterCommand(bus, func(context.Context, placeOrder) error {
		return boom
	}))
	require.ErrorIs(t, bus.Dispatch(ctx, placeOrder{}), boom)
}

func TestBus_Queries(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()

	require.NoError(t, RegisterQuery(bus, func(_ context.Context, q getOrderTotal) (int, error) {
		require.Equal(t, "42", q.OrderID)
		return 100, nil
	}))

	total, err := Query[int](ctx, bus, getOrderTotal{OrderID: "42"})
	require.NoError(t, err)
	require.Equal(t, 100, total)

	// Wrong result type on the typed front.
	_, err = Query[string](ctx, bus, getOrderTotal{OrderID: "42"})
	require.ErrorContains(t, err, "query result is int")
}
