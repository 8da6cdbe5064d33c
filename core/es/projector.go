package es

import (
	"context"
	"fmt"
)

// Projector builds a read-optimized model from stored events. Events must
// be fed in ascending stream order.
type Projector interface {
	Project(ctx context.Context, event StoredEvent) error
}

// ProjectorFunc adapts a function to the Projector interface.
type ProjectorFunc func(ctx context.Context, event StoredEvent) error

func (f ProjectorFunc) Project(ctx context.Context, event StoredEvent) error {
	return f(ctx, event)
}

// ProjectAll feeds events to p in order, stopping at the first error.
// An empty input is a no-op.
func ProjectAll(ctx context.Context, p Projector, events []StoredEvent) error {
	for _, e := range events {
		if err := p.Project(ctx, e); err != nil {
			return fmt.Errorf("project %s v%d: %w", e.StreamID, e.Version, err)
		}
	}
	return nil
}
