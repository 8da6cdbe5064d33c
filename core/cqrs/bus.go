// Package cqrs provides a small in-process bus routing commands and queries
// to their registered handlers by message type.
package cqrs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marcusPrado02/consist-go/internal/reflector"
)

var ErrNoHandler = errors.New("no handler registered")

// Bus dispatches each message to exactly one handler. Registration happens
// at startup; dispatching is safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	log      *slog.Logger
	commands map[string]func(ctx context.Context, cmd any) error
	queries  map[string]func(ctx context.Context, query any) (any, error)
}

type (
	busOptions struct {
		log *slog.Logger
	}

	BusOption interface {
		applyToBus(*busOptions)
	}

	LogOption struct{ l *slog.Logger }
)

func WithLog(l *slog.Logger) LogOption { return LogOption{l: l} }

func (o LogOption) applyToBus(bo *busOptions) { bo.log = o.l }

func NewBus(opts ...BusOption) *Bus {
	bo := busOptions{log: slog.Default()}
	for _, opt := range opts {
		opt.applyToBus(&bo)
	}
	return &Bus{
		log:      bo.log.With(slog.String("component", "cqrs")),
		commands: map[string]func(context.Context, any) error{},
		queries:  map[string]func(context.Context, any) (any, error){},
	}
}

// RegisterCommand binds the handler for command type C. A second handler for
// the same type is a configuration bug and is rejected.
func RegisterCommand[C any](b *Bus, handler func(ctx context.Context, cmd C) error) error {
	name := reflector.TypeInfoFor[C]().Name

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.commands[name]; ok {
		return fmt.Errorf("command %s already has a handler", name)
	}
	b.commands[name] = func(ctx context.Context, cmd any) error {
		return handler(ctx, cmd.(C))
	}
	return nil
}

// RegisterQuery binds the handler for query type Q returning R.
func RegisterQuery[Q, R any](b *Bus, handler func(ctx context.Context, query Q) (R, error)) error {
	name := reflector.TypeInfoFor[Q]().Name

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.queries[name]; ok {
		return fmt.Errorf("query %s already has a handler", name)
	}
	b.queries[name] = func(ctx context.Context, query any) (any, error) {
		return handler(ctx, query.(Q))
	}
	return nil
}

// Dispatch routes cmd to its handler.
func (b *Bus) Dispatch(ctx context.Context, cmd any) error {
	name := reflector.TypeInfoOf(cmd).Name

	b.mu.RLock()
	handler, ok := b.commands[name]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: command %s", ErrNoHandler, name)
	}

	b.log.Debug("dispatch", slog.String("command", name))
	return handler(ctx, cmd)
}

// Ask routes query to its handler and returns the untyped result; prefer
// the generic Query for a typed one.
func (b *Bus) Ask(ctx context.Context, query any) (any, error) {
	name := reflector.TypeInfoOf(query).Name

	b.mu.RLock()
	handler, ok := b.queries[name]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: query %s", ErrNoHandler, name)
	}

	b.log.Debug("ask", slog.String("query", name))
	return handler(ctx, query)
}

// Query is the typed front for Ask.
func Query[R any](ctx context.Context, b *Bus, query any) (out R, err error) {
	res, err := b.Ask(ctx, query)
	if err != nil {
		return out, err
	}
	typed, ok := res.(R)
	if !ok {
		return out, fmt.Errorf("query result is %T, want %T", res, out)
	}
	return typed, nil
}
