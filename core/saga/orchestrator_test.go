package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// stepPlan describes a scripted step: record every call into a shared log
// and fail where told to.
type stepPlan struct {
	name          string
	actionErr     error
	compensateErr error
}

func buildSteps(plans []stepPlan, calls *[]string) []Step {
	steps := make([]Step, 0, len(plans))
	for _, p := range plans {
		p := p
		steps = append(steps, Funcs{
			StepName: p.name,
			ActionFunc: func(_ context.Context, sctx *Context) error {
				*calls = append(*calls, "action:"+p.name)
				if p.actionErr != nil {
					return p.actionErr
				}
				sctx.Set(p.name, "done")
				return nil
			},
			CompensateFunc: func(_ context.Context, _ *Context) error {
				*calls = append(*calls, "compensate:"+p.name)
				return p.compensateErr
			},
		})
	}
	return steps
}

func TestOrchestrator_New(t *testing.T) {
	_, err := New("", []Step{Funcs{StepName: "s1"}})
	require.ErrorContains(t, err, "name is empty")

	_, err = New("order", nil)
	require.ErrorContains(t, err, "no steps")
}

func TestOrchestrator_AllStepsSucceed(t *testing.T) {
	var (
		calls []string
		store = NewInMemoryStore()
	)
	o, err := New("order", buildSteps([]stepPlan{
		{name: "s1"}, {name: "s2"}, {name: "s3"},
	}, &calls), WithStore(store))
	require.NoError(t, err)

	sctx, err := o.Run(context.Background(), "run-1", map[string]any{"order_id": "42"})
	require.NoError(t, err)
	require.Equal(t, []string{"action:s1", "action:s2", "action:s3"}, calls)
	require.Equal(t, "42", sctx.Get("order_id"))
	require.Equal(t, "done", sctx.Get("s3"))

	rec, err := store.Load(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, StateCompleted, rec.State)
	require.Equal(t, 3, rec.StepIndex)
	require.Equal(t, "42", rec.Context["order_id"])

	// Every transition was persisted: start, one per step, completion.
	history := store.History("run-1")
	require.Len(t, history, 5)
	require.Equal(t, StateRunning, history[0].State)
	require.Equal(t, 0, history[0].StepIndex)
}

func TestOrchestrator_FailureCompensatesInReverse(t *testing.T) {
	var (
		calls []string
		store = NewInMemoryStore()
		boom  = errors.New("payment declined")
	)
	o, err := New("order", buildSteps([]stepPlan{
		{name: "reserve"}, {name: "charge", actionErr: boom}, {name: "ship"},
	}, &calls), WithStore(store))
	require.NoError(t, err)

	sctx, err := o.Run(context.Background(), "run-1", nil)
	require.Nil(t, sctx)

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, "run-1", failed.SagaID)
	require.Equal(t, "charge", failed.Step)
	require.ErrorIs(t, err, boom)

	// The failed step is never compensated; ship never ran.
	require.Equal(t, []string{"action:reserve", "action:charge", "compensate:reserve"}, calls)
	require.Len(t, failed.Compensations, 1)
	require.Equal(t, "reserve", failed.Compensations[0].Step)
	require.NoError(t, failed.Compensations[0].Err)

	rec, err := store.Load(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, StateFailed, rec.State)

	states := make([]State, 0)
	for _, r := range store.History("run-1") {
		states = append(states, r.State)
	}
	require.Equal(t, []State{StateRunning, StateRunning, StateCompensating, StateFailed}, states)
}

func TestOrchestrator_FirstStepFails(t *testing.T) {
	var (
		calls []string
		boom  = errors.New("no stock")
	)
	o, err := New("order", buildSteps([]stepPlan{
		{name: "reserve", actionErr: boom}, {name: "charge"},
	}, &calls))
	require.NoError(t, err)

	_, err = o.Run(context.Background(), "run-1", nil)
	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.Empty(t, failed.Compensations)
	require.Equal(t, []string{"action:reserve"}, calls)
}

func TestOrchestrator_CompensationFailureReportedNotSwallowed(t *testing.T) {
	var (
		calls   []string
		store   = NewInMemoryStore()
		boom    = errors.New("ship failed")
		undoErr = errors.New("refund failed")
	)
	o, err := New("order", buildSteps([]stepPlan{
		{name: "reserve"},
		{name: "charge", compensateErr: undoErr},
		{name: "ship", actionErr: boom},
	}, &calls), WithStore(store))
	require.NoError(t, err)

	_, err = o.Run(context.Background(), "run-1", nil)

	var cf *CompensationFailedError
	require.ErrorAs(t, err, &cf)
	require.Equal(t, "ship", cf.Step)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, undoErr)

	// All compensations were attempted despite the failure in the middle.
	require.Equal(t, []string{
		"action:reserve", "action:charge", "action:ship",
		"compensate:charge", "compensate:reserve",
	}, calls)
	require.Len(t, cf.Compensations, 2)
	require.Equal(t, "charge", cf.Compensations[0].Step)
	require.ErrorIs(t, cf.Compensations[0].Err, undoErr)
	require.NoError(t, cf.Compensations[1].Err)

	rec, err := store.Load(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, StateCompensationFailed, rec.State)
}

func TestOrchestrator_MultipleCompensationFailures(t *testing.T) {
	var (
		calls      []string
		store      = NewInMemoryStore()
		boom       = errors.New("ship failed")
		releaseErr = errors.New("release failed")
		refundErr  = errors.New("refund failed")
	)
	o, err := New("order", buildSteps([]stepPlan{
		{name: "reserve", compensateErr: releaseErr},
		{name: "charge", compensateErr: refundErr},
		{name: "ship", actionErr: boom},
	}, &calls), WithStore(store))
	require.NoError(t, err)

	_, err = o.Run(context.Background(), "run-1", nil)

	var cf *CompensationFailedError
	require.ErrorAs(t, err, &cf)
	require.ErrorIs(t, err, boom)

	// Reverse order, every compensation attempted even after the first one
	// failed; the reported CompensationErr is the first failure encountered.
	require.Equal(t, []string{
		"action:reserve", "action:charge", "action:ship",
		"compensate:charge", "compensate:reserve",
	}, calls)
	require.ErrorIs(t, cf.CompensationErr, refundErr)
	require.Len(t, cf.Compensations, 2)
	require.Equal(t, "charge", cf.Compensations[0].Step)
	require.ErrorIs(t, cf.Compensations[0].Err, refundErr)
	require.Equal(t, "reserve", cf.Compensations[1].Step)
	require.ErrorIs(t, cf.Compensations[1].Err, releaseErr)

	rec, err := store.Load(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, StateCompensationFailed, rec.State)
}

func TestOrchestrator_NilCompensateIsNoOp(t *testing.T) {
	boom := errors.New("boom")
	steps := []Step{
		Funcs{
			StepName:   "log",
			ActionFunc: func(context.Context, *Context) error { return nil },
		},
		Funcs{
			StepName:   "fail",
			ActionFunc: func(context.Context, *Context) error { return boom },
		},
	}
	o, err := New("order", steps)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), "", nil)
	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.NotEmpty(t, failed.SagaID) // generated
	require.Len(t, failed.Compensations, 1)
	require.NoError(t, failed.Compensations[0].Err)
}

func TestOrchestrator_ContextFlowsBetweenSteps(t *testing.T) {
	steps := []Step{
		Funcs{
			StepName: "reserve",
			ActionFunc: func(_ context.Context, sctx *Context) error {
				sctx.Set("reservation_id", "r-9")
				return nil
			},
			CompensateFunc: func(_ context.Context, sctx *Context) error {
				if !sctx.Has("reservation_id") {
					return errors.New("reservation_id missing")
				}
				return nil
			},
		},
		Funcs{
			StepName: "charge",
			ActionFunc: func(_ context.Context, sctx *Context) error {
				if sctx.Get("reservation_id") != "r-9" {
					return errors.New("reservation_id not visible")
				}
				return errors.New("declined")
			},
		},
	}
	o, err := New("order", steps)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), "run-1", nil)
	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.EqualError(t, failed.Cause, "declined")
	require.NoError(t, failed.Compensations[0].Err)
}

// failingStore fails Save after a number of successful writes.
type failingStore struct {
	*InMemoryStore
	failAfter int
	saves     int
	err       error
}

func (f *failingStore) Save(ctx context.Context, sagaID string, state State, stepIndex int, snapshot map[string]any) error {
	f.saves++
	if f.saves > f.failAfter {
		return f.err
	}
	return f.InMemoryStore.Save(ctx, sagaID, state, stepIndex, snapshot)
}

func TestOrchestrator_InitialPersistFailureAbortsRun(t *testing.T) {
	var calls []string
	storeErr := errors.New("kv down")
	store := &failingStore{InMemoryStore: NewInMemoryStore(), failAfter: 0, err: storeErr}

	o, err := New("order", buildSteps([]stepPlan{{name: "s1"}}, &calls), WithStore(store))
	require.NoError(t, err)

	_, err = o.Run(context.Background(), "run-1", nil)
	require.ErrorIs(t, err, storeErr)
	require.Empty(t, calls) // no step ran
}

func TestOrchestrator_MidRunPersistFailureTriggersCompensation(t *testing.T) {
	var calls []string
	storeErr := errors.New("kv down")
	// First save (RUNNING/0) succeeds, the save after step s1 fails.
	store := &failingStore{InMemoryStore: NewInMemoryStore(), failAfter: 1, err: storeErr}

	o, err := New("order", buildSteps([]stepPlan{{name: "s1"}, {name: "s2"}}, &calls), WithStore(store))
	require.NoError(t, err)

	_, err = o.Run(context.Background(), "run-1", nil)

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.ErrorIs(t, err, storeErr)
	// s1's effect is real, so it was compensated; s2 never ran.
	require.Equal(t, []string{"action:s1", "compensate:s1"}, calls)
}
