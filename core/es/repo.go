package es

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

// MetadataFunc produces the infrastructure metadata persisted with each
// domain event.
type MetadataFunc func(event any) map[string]any

// Repository rehydrates aggregates from their stream and persists new
// events with optimistic concurrency. A conflict on Save means another
// writer advanced the stream since this aggregate was loaded; the caller
// must reload, reapply the command and save again; the repository never
// retries.
type Repository interface {
	Load(ctx context.Context, agg Aggregate) error
	Save(ctx context.Context, agg Aggregate) error
}

type repository struct {
	log          *slog.Logger
	store        EventStore
	registry     *EventRegistry
	metrics      ESMetrics
	metadataFunc MetadataFunc
}

func NewRepository(store EventStore, registry *EventRegistry, opts ...RepositoryOption) Repository {
	options := newRepoOptions(opts...)
	return &repository{
		log:          options.log.With(slog.String("repo", fmt.Sprintf("%T", store))),
		store:        store,
		registry:     registry,
		metrics:      options.metrics,
		metadataFunc: options.metadataFunc,
	}
}

// Load replays the aggregate's stream into agg. An empty stream yields
// ErrAggregateNotFound. Replay applies events in ascending version order
// and must leave the aggregate clean (no uncommitted events).
func (r *repository) Load(ctx context.Context, agg Aggregate) error {
	if err := checkIdentity(agg); err != nil {
		return err
	}
	if len(agg.Uncommitted()) != 0 {
		return errors.New("aggregate has uncommitted events")
	}

	defer r.metrics.RepoLoadDuration(agg.GetAggType()).ObserveDuration()

	events, err := r.store.Load(ctx, StreamID(agg), WithFromVersion(agg.GetVersion()))
	if err != nil {
		return err
	}
	if agg.GetVersion() == 0 && len(events) == 0 {
		return ErrAggregateNotFound
	}

	if err := replay(r.registry, agg, events); err != nil {
		return err
	}

	r.log.Debug(
		"loaded",
		slog.String("stream", StreamID(agg)),
		agg.GetVersion().SlogAttr(),
	)
	return nil
}

// Save drains the aggregate's uncommitted events and appends them. With
// nothing buffered it is a no-op and never touches the store. The expected
// version is the version before the buffered events were raised.
func (r *repository) Save(ctx context.Context, agg Aggregate) error {
	uncommitted := agg.Uncommitted()
	if len(uncommitted) == 0 {
		return nil
	}
	if err := checkIdentity(agg); err != nil {
		return err
	}

	defer r.metrics.RepoSaveDuration(agg.GetAggType()).ObserveDuration()

	var (
		streamID = StreamID(agg)
		prior    = agg.GetVersion() - Version(len(uncommitted))
		events   = make([]StoredEvent, 0, len(uncommitted))
	)

	for i, ev := range uncommitted {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("serialize %T: %w", ev, err)
		}
		events = append(events, StoredEvent{
			StreamID:   streamID,
			Version:    prior + Version(i) + 1,
			EventType:  eventTypeOf(ev),
			Payload:    payload,
			Metadata:   r.metadataFunc(ev),
			OccurredAt: time.Now().UTC(),
		})
	}

	if err := r.store.Append(ctx, streamID, events, prior); err != nil {
		return fmt.Errorf("save stream %s: %w", streamID, err)
	}
	agg.ClearUncommitted()

	r.log.Debug(
		"saved",
		slog.String("stream", streamID),
		slog.Int("num_events", len(events)),
		agg.GetVersion().SlogAttr(),
	)
	return nil
}

var _ Repository = (*repository)(nil)

func checkIdentity(agg Aggregate) error {
	if agg.GetAggType() == "" {
		return errors.New("aggregate type is empty")
	}
	if agg.GetID() == "" {
		return errors.New("aggregate id is empty")
	}
	return nil
}

// replay decodes and applies events in order, enforcing the gapless
// version invariant and keeping the aggregate version in step.
func replay(registry *EventRegistry, agg Aggregate, events []StoredEvent) error {
	for _, e := range events {
		if want := agg.GetVersion() + 1; e.Version != want {
			return fmt.Errorf("stream %s: expected version %d, got %d", e.StreamID, want, e.Version)
		}
		ev, err := registry.Decode(e)
		if err != nil {
			return err
		}
		if err := agg.Apply(ev); err != nil {
			return err
		}
		agg.setVersion(e.Version)
	}
	return nil
}

// === TypedRepository ===

// TypedRepository is a type-safe front for Repository.
type TypedRepository[T Aggregate] interface {
	New() T
	NewWithID(id string) T
	GetByID(ctx context.Context, id string) (T, error)
	Load(ctx context.Context, agg T) error
	Save(ctx context.Context, agg T) error
}

type typedRepo[T Aggregate] struct {
	r Repository
}

func NewTypedRepository[T Aggregate](store EventStore, registry *EventRegistry, opts ...RepositoryOption) TypedRepository[T] {
	return NewTypedRepositoryFrom[T](NewRepository(store, registry, opts...))
}

func NewTypedRepositoryFrom[T Aggregate](r Repository) TypedRepository[T] {
	return &typedRepo[T]{r: r}
}

func (t *typedRepo[T]) New() T { return t.NewWithID("") }

func (t *typedRepo[T]) NewWithID(id string) T {
	var a T
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() == reflect.Pointer {
		a = reflect.New(rt.Elem()).Interface().(T)
	}
	a.SetID(id)
	return a
}

func (t *typedRepo[T]) GetByID(ctx context.Context, id string) (a T, err error) {
	if id == "" {
		return a, errors.New("aggregate id is empty")
	}
	a = t.NewWithID(id)
	if err = t.r.Load(ctx, a); err != nil {
		return a, err
	}
	return a, nil
}

func (t *typedRepo[T]) Load(ctx context.Context, agg T) error { return t.r.Load(ctx, agg) }
func (t *typedRepo[T]) Save(ctx context.Context, agg T) error { return t.r.Save(ctx, agg) }
