package saga

import "context"

// Step is one compensatable unit of work. Action performs the step's
// effect; Compensate undoes it and is only ever called after Action
// returned nil. Both read and write the shared saga Context.
type Step interface {
	Name() string
	Action(ctx context.Context, sctx *Context) error
	Compensate(ctx context.Context, sctx *Context) error
}

// Funcs adapts plain functions to the Step interface. A nil CompensateFunc
// makes compensation a no-op, for steps with no effect worth undoing.
type Funcs struct {
	StepName       string
	ActionFunc     func(ctx context.Context, sctx *Context) error
	CompensateFunc func(ctx context.Context, sctx *Context) error
}

func (f Funcs) Name() string { return f.StepName }

func (f Funcs) Action(ctx context.Context, sctx *Context) error {
	return f.ActionFunc(ctx, sctx)
}

func (f Funcs) Compensate(ctx context.Context, sctx *Context) error {
	if f.CompensateFunc == nil {
		return nil
	}
	return f.CompensateFunc(ctx, sctx)
}

var _ Step = Funcs{}
