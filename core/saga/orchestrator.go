package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CompensationOutcome records one compensation attempt during rollback.
type CompensationOutcome struct {
	Step string
	Err  error
}

// FailedError is returned when a step fails and every completed step was
// compensated successfully.
type FailedError struct {
	SagaID        string
	Step          string
	Cause         error
	Compensations []CompensationOutcome
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("saga %s failed at step %q: %v", e.SagaID, e.Step, e.Cause)
}

func (e *FailedError) Unwrap() error { return e.Cause }

// CompensationFailedError is returned when a step fails and at least one
// compensation fails too, leaving effects behind that need manual cleanup.
// CompensationErr is the first compensation failure; Compensations lists
// every attempt, so none is swallowed.
type CompensationFailedError struct {
	SagaID          string
	Step            string
	ActionErr       error
	CompensationErr error
	Compensations   []CompensationOutcome
}

func (e *CompensationFailedError) Error() string {
	return fmt.Sprintf(
		"saga %s failed at step %q and compensation failed: %v (action error: %v)",
		e.SagaID, e.Step, e.CompensationErr, e.ActionErr,
	)
}

func (e *CompensationFailedError) Unwrap() []error {
	return []error{e.ActionErr, e.CompensationErr}
}

type (
	orchestratorOptions struct {
		log     *slog.Logger
		store   Store
		metrics Metrics
	}

	// OrchestratorOption configures New.
	OrchestratorOption interface {
		applyToOrchestrator(*orchestratorOptions)
	}

	StoreOption   struct{ s Store }
	LogOption     struct{ l *slog.Logger }
	MetricsOption struct{ m Metrics }
)

// WithStore sets the audit store. Default is an InMemoryStore.
func WithStore(s Store) StoreOption { return StoreOption{s: s} }

func WithLog(l *slog.Logger) LogOption { return LogOption{l: l} }

func WithMetrics(m Metrics) MetricsOption { return MetricsOption{m: m} }

func (o StoreOption) applyToOrchestrator(oo *orchestratorOptions)   { oo.store = o.s }
func (o LogOption) applyToOrchestrator(oo *orchestratorOptions)     { oo.log = o.l }
func (o MetricsOption) applyToOrchestrator(oo *orchestratorOptions) { oo.metrics = o.m }

func newOrchestratorOptions(opts ...OrchestratorOption) orchestratorOptions {
	oo := orchestratorOptions{
		log:     slog.Default(),
		store:   NewInMemoryStore(),
		metrics: NopMetrics(),
	}
	for _, opt := range opts {
		opt.applyToOrchestrator(&oo)
	}
	return oo
}

// Orchestrator runs a fixed step list. One Orchestrator serves many runs;
// all per-run state lives in the Context and the Store.
type Orchestrator struct {
	name    string
	steps   []Step
	log     *slog.Logger
	store   Store
	metrics Metrics
}

func New(name string, steps []Step, opts ...OrchestratorOption) (*Orchestrator, error) {
	if name == "" {
		return nil, errors.New("saga name is empty")
	}
	if len(steps) == 0 {
		return nil, errors.New("saga has no steps")
	}

	options := newOrchestratorOptions(opts...)
	return &Orchestrator{
		name:    name,
		steps:   steps,
		log:     options.log.With(slog.String("saga", name)),
		store:   options.store,
		metrics: options.metrics,
	}, nil
}

// Run executes the steps in order against a fresh Context seeded from
// initial. An empty sagaID gets a generated one. On success the final
// Context is returned. On a step failure all previously completed steps
// are compensated in reverse order and the error is a *FailedError or,
// when compensation broke too, a *CompensationFailedError.
func (o *Orchestrator) Run(ctx context.Context, sagaID string, initial map[string]any) (*Context, error) {
	if sagaID == "" {
		sagaID = gonanoid.Must()
	}

	var (
		log  = o.log.With(slog.String("saga_id", sagaID))
		sctx = NewContext(initial)
	)

	defer o.metrics.RunDuration().ObserveDuration()

	if err := o.store.Save(ctx, sagaID, StateRunning, 0, sctx.Snapshot()); err != nil {
		return nil, fmt.Errorf("save saga %s: %w", sagaID, err)
	}
	log.Info("saga started", slog.Int("num_steps", len(o.steps)))

	var completed []Step
	for i, step := range o.steps {
		err := o.runStep(ctx, step, sctx)
		if err == nil {
			completed = append(completed, step)
			// A persist failure here means the saga cannot be tracked
			// further; the step's effect is real, so it joins the
			// compensation set like any step failure.
			if err = o.store.Save(ctx, sagaID, StateRunning, i+1, sctx.Snapshot()); err == nil {
				continue
			}
		}

		o.metrics.StepFailed(step.Name())
		log.Warn("step failed, compensating",
			slog.String("step", step.Name()),
			slog.Int("completed", len(completed)),
			slog.String("error", err.Error()),
		)
		return nil, o.compensate(ctx, log, sagaID, i, step.Name(), err, completed, sctx)
	}

	if err := o.store.Save(ctx, sagaID, StateCompleted, len(o.steps), sctx.Snapshot()); err != nil {
		// All effects are committed; completion just could not be recorded.
		log.Error("save COMPLETED state", slog.String("error", err.Error()))
	}
	o.metrics.RunCompleted(StateCompleted)
	log.Info("saga completed")
	return sctx, nil
}

func (o *Orchestrator) runStep(ctx context.Context, step Step, sctx *Context) error {
	defer o.metrics.StepDuration(step.Name()).ObserveDuration()
	return step.Action(ctx, sctx)
}

// compensate undoes completed steps in reverse order. Every compensation is
// attempted even after one fails; the outcomes carry all of them.
func (o *Orchestrator) compensate(
	ctx context.Context,
	log *slog.Logger,
	sagaID string,
	stepIndex int,
	stepName string,
	actionErr error,
	completed []Step,
	sctx *Context,
) error {
	o.saveTransition(ctx, log, sagaID, StateCompensating, stepIndex, sctx)

	var (
		outcomes []CompensationOutcome
		firstErr error
	)
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		err := step.Compensate(ctx, sctx)
		outcomes = append(outcomes, CompensationOutcome{Step: step.Name(), Err: err})
		o.metrics.CompensationAttempted(step.Name(), err == nil)
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		log.Error("compensation failed",
			slog.String("step", step.Name()),
			slog.String("error", err.Error()),
		)
	}

	if firstErr != nil {
		o.saveTransition(ctx, log, sagaID, StateCompensationFailed, stepIndex, sctx)
		o.metrics.RunCompleted(StateCompensationFailed)
		return &CompensationFailedError{
			SagaID:          sagaID,
			Step:            stepName,
			ActionErr:       actionErr,
			CompensationErr: firstErr,
			Compensations:   outcomes,
		}
	}

	o.saveTransition(ctx, log, sagaID, StateFailed, stepIndex, sctx)
	o.metrics.RunCompleted(StateFailed)
	log.Info("saga rolled back", slog.Int("num_compensated", len(outcomes)))
	return &FailedError{
		SagaID:        sagaID,
		Step:          stepName,
		Cause:         actionErr,
		Compensations: outcomes,
	}
}

// saveTransition persists a rollback transition. A failing audit write must
// not mask the saga error, so it is only logged.
func (o *Orchestrator) saveTransition(ctx context.Context, log *slog.Logger, sagaID string, state State, stepIndex int, sctx *Context) {
	if err := o.store.Save(ctx, sagaID, state, stepIndex, sctx.Snapshot()); err != nil {
		log.Error("save saga state",
			slog.String("state", state.String()),
			slog.String("error", err.Error()),
		)
	}
}
