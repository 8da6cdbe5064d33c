package es

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryStore is the reference EventStore for tests and local
// development. The mutex serializes the version check and the extend, so
// the optimistic check is race-free within one process.
type InMemoryStore struct {
	mu      sync.Mutex
	log     *slog.Logger
	metrics ESMetrics
	streams map[string][]StoredEvent
}

func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	options := newStoreOptions(opts...)
	return &InMemoryStore{
		log:     options.log.With(slog.String("store", "memory")),
		metrics: options.metrics,
		streams: map[string][]StoredEvent{},
	}
}

func (s *InMemoryStore) Append(
	_ context.Context,
	streamID string,
	events []StoredEvent,
	expected Version,
) error {
	if len(events) == 0 {
		return ErrNoEvents
	}

	defer s.metrics.StoreAppendDuration().ObserveDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[streamID]
	actual := Version(len(stream))
	if actual != expected {
		s.metrics.ConcurrencyConflict()
		return &ConcurrencyError{StreamID: streamID, Expected: expected, Actual: actual}
	}

	// Whole batch validated before anything is committed.
	if err := ValidateBatch(streamID, events, expected); err != nil {
		return err
	}

	s.streams[streamID] = append(stream, events...)
	s.metrics.EventsAppended(len(events))

	s.log.Debug(
		"append",
		slog.String("stream", streamID),
		slog.Int("num_events", len(events)),
		(expected + Version(len(events))).SlogAttr(),
	)
	return nil
}

func (s *InMemoryStore) Load(
	_ context.Context,
	streamID string,
	opts ...LoadOption,
) ([]StoredEvent, error) {
	defer s.metrics.StoreLoadDuration().ObserveDuration()

	lo := NewLoadOptions(opts...)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StoredEvent, 0)
	for _, e := range s.streams[streamID] {
		if e.Version > lo.FromVersion() {
			out = append(out, e)
		}
	}
	return out, nil
}

// StreamVersion returns the current number of events in streamID.
func (s *InMemoryStore) StreamVersion(streamID string) Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Version(len(s.streams[streamID]))
}

// Events returns a copy of all committed events of one stream.
func (s *InMemoryStore) Events(streamID string) []StoredEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StoredEvent, len(s.streams[streamID]))
	copy(out, s.streams[streamID])
	return out
}

var _ EventStore = (*InMemoryStore)(nil)
