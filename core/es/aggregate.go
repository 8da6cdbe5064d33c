package es

import (
	"fmt"
)

// Aggregate is the contract for event-sourced domain objects.
//
// An aggregate tracks its identity (type + id), a version counting every
// event applied (replayed or freshly raised), and the events raised but
// not yet persisted. It is constructed blank for every load and discarded
// when the call scope ends; durability lives entirely in the event store,
// there is no identity map.
type Aggregate interface {
	// GetAggType returns the stream prefix for this aggregate kind.
	GetAggType() string
	GetID() string
	SetID(string)

	// GetVersion returns the number of events applied so far.
	GetVersion() Version
	setVersion(Version)

	// Register registers this aggregate's event types with a Registrar.
	Register(r Registrar)
	// Raise records an event as uncommitted without applying it.
	Raise(event any)
	// Apply mutates state from one event. Called during replay and right
	// after raising; it must be pure: no I/O, no new events.
	Apply(event any) error

	// Uncommitted returns a copy of the events raised but not yet saved.
	Uncommitted() []any
	ClearUncommitted()
}

// StreamID builds the canonical stream identifier "<AggType>-<ID>".
func StreamID(agg Aggregate) string {
	return agg.GetAggType() + "-" + agg.GetID()
}

// BaseAggregate is an embeddable helper tracking id, version and
// uncommitted events.
type BaseAggregate struct {
	id          string
	version     Version
	uncommitted []any
}

func (b *BaseAggregate) GetID() string        { return b.id }
func (b *BaseAggregate) SetID(id string)      { b.id = id }
func (b *BaseAggregate) GetVersion() Version  { return b.version }
func (b *BaseAggregate) setVersion(v Version) { b.version = v }

func (b *BaseAggregate) Raise(event any) { b.uncommitted = append(b.uncommitted, event) }

func (b *BaseAggregate) Uncommitted() []any {
	out := make([]any, len(b.uncommitted))
	copy(out, b.uncommitted)
	return out
}

func (b *BaseAggregate) ClearUncommitted() { b.uncommitted = nil }

// RaiseAndApply validates, records and applies events, advancing the
// aggregate version once per event. Command methods call this; replay
// never does.
func RaiseAndApply(a Aggregate, events ...any) error {
	for _, e := range events {
		if v, ok := e.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("invalid event %T: %w", e, err)
			}
		}
	}

	for _, e := range events {
		a.Raise(e)
		if err := a.Apply(e); err != nil {
			return err
		}
		a.setVersion(a.GetVersion() + 1)
	}
	return nil
}
