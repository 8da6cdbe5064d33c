package es

import (
	"fmt"
	"time"
)

// StoredEvent is one committed fact in a stream. It is immutable once
// appended: stores never mutate or delete it. Payload bytes are opaque to
// the store and must round-trip exactly.
type StoredEvent struct {
	// StreamID identifies the aggregate stream, by convention
	// "<AggType>-<ID>" (see StreamID).
	StreamID string `json:"stream_id"`
	// Version is the 1-based position within the stream. For a given
	// stream the committed versions are exactly 1..N, no gaps, no
	// duplicates.
	Version Version `json:"version"`
	// EventType names the domain event for decode routing.
	EventType string `json:"event_type"`
	// Payload is the serialized domain event.
	Payload []byte `json:"payload"`
	// Metadata carries infrastructure concerns (correlation id, tenant id).
	Metadata map[string]any `json:"metadata,omitempty"`
	// OccurredAt is when the event was recorded.
	OccurredAt time.Time `json:"occurred_at"`
}

func (e StoredEvent) Validate() error {
	if e.StreamID == "" {
		return fmt.Errorf("stored event stream id is empty")
	}
	if e.Version == 0 {
		return fmt.Errorf("stored event version is zero")
	}
	if e.EventType == "" {
		return fmt.Errorf("stored event type is empty")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("stored event occurred at is zero")
	}
	return nil
}
