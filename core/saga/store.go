package saga

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSagaNotFound = errors.New("saga not found")

// Record is the persisted view of a saga run at one transition.
type Record struct {
	SagaID    string         `json:"saga_id"`
	State     State          `json:"state"`
	StepIndex int            `json:"step_index"`
	Context   map[string]any `json:"context,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store persists saga transitions as an audit trail. It is written at every
// transition and read for inspection only; the orchestrator never resumes a
// run from it.
type Store interface {
	Save(ctx context.Context, sagaID string, state State, stepIndex int, snapshot map[string]any) error
	Load(ctx context.Context, sagaID string) (*Record, error)
}

// InMemoryStore keeps the full transition history per saga, latest last.
type InMemoryStore struct {
	mu      sync.Mutex
	history map[string][]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{history: map[string][]Record{}}
}

func (s *InMemoryStore) Save(_ context.Context, sagaID string, state State, stepIndex int, snapshot map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[sagaID] = append(s.history[sagaID], Record{
		SagaID:    sagaID,
		State:     state,
		StepIndex: stepIndex,
		Context:   snapshot,
		UpdatedAt: time.Now().UTC(),
	})
	return nil
}

// Load returns the latest record of sagaID.
func (s *InMemoryStore) Load(_ context.Context, sagaID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.history[sagaID]
	if len(records) == 0 {
		return nil, ErrSagaNotFound
	}
	rec := records[len(records)-1]
	return &rec, nil
}

// History returns every transition recorded for sagaID, in order.
func (s *InMemoryStore) History(sagaID string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.history[sagaID]))
	copy(out, s.history[sagaID])
	return out
}

var _ Store = (*InMemoryStore)(nil)
