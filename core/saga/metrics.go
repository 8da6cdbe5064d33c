package saga

import "github.com/marcusPrado02/consist-go/core/metrics"

// Metrics is the instrumentation surface of the saga pillar. Implementations
// must be safe for concurrent use; see adapters/prom.
type Metrics interface {
	RunDuration() metrics.Timer
	RunCompleted(state State)
	StepDuration(step string) metrics.Timer
	StepFailed(step string)
	CompensationAttempted(step string, success bool)
}

type nopMetrics struct{}

func (nopMetrics) RunDuration() metrics.Timer         { return metrics.NopTimer() }
func (nopMetrics) RunCompleted(State)                 {}
func (nopMetrics) StepDuration(string) metrics.Timer  { return metrics.NopTimer() }
func (nopMetrics) StepFailed(string)                  {}
func (nopMetrics) CompensationAttempted(string, bool) {}

// NopMetrics returns the no-op Metrics used when none is configured.
func NopMetrics() Metrics { return nopMetrics{} }
