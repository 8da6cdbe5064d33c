package saga

// State is the lifecycle state of a saga run.
type State string

const (
	StateRunning            State = "RUNNING"
	StateCompensating       State = "COMPENSATING"
	StateCompleted          State = "COMPLETED"
	StateFailed             State = "FAILED"
	StateCompensationFailed State = "COMPENSATION_FAILED"
)

// Terminal reports whether no further transition can follow.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCompensationFailed:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }
