package es

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/marcusPrado02/consist-go/internal/reflector"
)

// EventRegistry maps event type names to constructors so persisted payloads
// can be decoded during replay. Construct one at process startup and inject
// it; it is never a process-wide singleton.
type EventRegistry struct {
	mu    sync.RWMutex
	ctors map[string]func() any
}

func NewEventRegistry() *EventRegistry {
	return &EventRegistry{ctors: map[string]func() any{}}
}

func (r *EventRegistry) Register(eventType string, ctor func() any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[eventType] = ctor
}

// Decode instantiates the registered type for e.EventType and unmarshals
// the payload into it.
func (r *EventRegistry) Decode(e StoredEvent) (any, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[e.EventType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, e.EventType)
	}

	ev := ctor()
	if e.Payload != nil {
		if err := json.Unmarshal(e.Payload, ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.EventType, err)
		}
	}
	return ev, nil
}

type Registrar interface {
	Register(eventType string, ctor func() any)
}

// Event returns a reflection-free constructor producing a fresh *T per call.
func Event[T any]() func() any { return func() any { return new(T) } }

// RegisterEvents registers constructors, deriving each type name from a
// sample instance.
func RegisterEvents(r Registrar, ctors ...func() any) {
	for _, ctor := range ctors {
		r.Register(eventTypeOf(ctor()), ctor)
	}
}

// RegisterEventFor registers T under its reflected type name.
func RegisterEventFor[T any](r Registrar) {
	r.Register(reflector.TypeInfoFor[T]().Name, func() any { return new(T) })
}

// eventTypeOf resolves the persisted type name of a domain event. Events
// may override the reflected name by implementing EventType() string.
func eventTypeOf(ev any) string {
	if t, ok := ev.(interface{ EventType() string }); ok {
		return t.EventType()
	}
	return reflector.TypeInfoOf(ev).Name
}
