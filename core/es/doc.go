// Package es implements event-sourced persistence with optimistic
// concurrency control.
//
// # Core Components
//
// StoredEvent is the immutable envelope committed to a stream. Its shape
// (stream id, 1-based version, event type, opaque payload, metadata,
// timestamp) is the storage contract adapters must preserve.
//
// EventStore is the append-only log. [EventStore.Append] succeeds only when
// the caller's expected version matches the stream's current length and
// commits the batch as one unit; a mismatch yields a [ConcurrencyError]
// matching [ErrConcurrencyConflict] via errors.Is. The conflict is always
// surfaced; recovery (reload, reapply, retry) belongs to the caller.
// [NewInMemoryStore] is the reference implementation; adapters/badger and
// adapters/nats provide durable ones.
//
// Aggregate is the consistency boundary. Embed [BaseAggregate], implement
// Apply for your event types, and raise new events from command methods
// via [RaiseAndApply]:
//
//	type Order struct {
//	    es.BaseAggregate
//	    Status string
//	}
//
//	func (o *Order) Place() error {
//	    return es.RaiseAndApply(o, &OrderPlaced{})
//	}
//
// Repository rehydrates aggregates by replaying their stream and persists
// uncommitted events with the expected-version check. Replay is
// deterministic and side-effect free. Use [NewTypedRepository] for
// type-safe access:
//
//	repo := es.NewTypedRepository[*Order](store, registry)
//	order, err := repo.GetByID(ctx, "order-1")
//
// # Snapshots and Projections
//
// SnapshotStore holds compacted aggregate state so long streams replay only
// their tail; [LoadWithSnapshot] is the manual integration seam, the
// repository never snapshots on its own. Projector consumes stored events
// in stream order to build read models.
//
// # Event Registration
//
// Payloads are opaque bytes; an [EventRegistry] maps event type names to
// constructors so replay can decode them. Registries are always built at
// compose time and passed by reference; there is no package-level registry.
package es
