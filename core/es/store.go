package es

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoEvents            = errors.New("no events to append")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrAggregateNotFound   = errors.New("aggregate not found")
	ErrUnknownEventType    = errors.New("unknown event type")
)

// ConcurrencyError reports a write-write conflict: the stream advanced
// since the caller last observed it. It is always retryable: reload the
// aggregate, reapply the command, append again. Stores never retry
// internally.
type ConcurrencyError struct {
	StreamID string
	Expected Version
	Actual   Version
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf(
		"concurrency conflict on stream %q: expected version %d, found %d",
		e.StreamID, e.Expected, e.Actual,
	)
}

// Is makes errors.Is(err, ErrConcurrencyConflict) match.
func (e *ConcurrencyError) Is(target error) bool { return target == ErrConcurrencyConflict }

type (
	// LoadOptions is the resolved option set for EventStore.Load; store
	// implementations build it with NewLoadOptions.
	LoadOptions struct {
		fromVersion Version
	}

	// LoadOption configures EventStore.Load.
	LoadOption interface {
		applyToLoadOptions(*LoadOptions)
	}

	FromVersionOption struct{ v Version }
)

// FromVersion is the exclusive lower version bound, zero by default.
func (lo LoadOptions) FromVersion() Version { return lo.fromVersion }

// WithFromVersion restricts Load to events with Version > v.
// v is typically the version of a restored snapshot.
func WithFromVersion(v Version) FromVersionOption { return FromVersionOption{v: v} }

func (o FromVersionOption) applyToLoadOptions(lo *LoadOptions) { lo.fromVersion = o.v }

func NewLoadOptions(opts ...LoadOption) LoadOptions {
	var lo LoadOptions
	for _, opt := range opts {
		opt.applyToLoadOptions(&lo)
	}
	return lo
}

// EventStore is the append-only, per-stream versioned log.
//
// Append commits the whole batch or nothing. It succeeds only when the
// stream currently holds exactly expected events; expected == 0 signals
// stream creation. On a mismatch it returns a *ConcurrencyError.
// Persistent implementations must make the check-and-insert atomic (a
// transaction or a unique (stream_id, version) constraint); a bare
// count-then-insert is not atomic across a round trip.
//
// Load returns events with Version > from (default 0) in ascending version
// order. An unknown stream yields an empty slice, not an error.
type EventStore interface {
	Append(ctx context.Context, streamID string, events []StoredEvent, expected Version) error
	Load(ctx context.Context, streamID string, opts ...LoadOption) ([]StoredEvent, error)
}

// ValidateBatch checks every event before anything is committed, so a bad
// batch can be rejected atomically. Events must carry the consecutive
// versions immediately following expected. Store implementations call this
// inside their append transaction.
func ValidateBatch(streamID string, events []StoredEvent, expected Version) error {
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if e.StreamID != streamID {
			return fmt.Errorf("event %d: stream id %q does not match %q", i, e.StreamID, streamID)
		}
		if want := expected + Version(i) + 1; e.Version != want {
			return fmt.Errorf("event %d: version %d, want %d", i, e.Version, want)
		}
	}
	return nil
}
