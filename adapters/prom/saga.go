package prom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marcusPrado02/consist-go/core/metrics"
	"github.com/marcusPrado02/consist-go/core/saga"
)

// SagaMetrics implements saga.Metrics on Prometheus collectors.
type SagaMetrics struct {
	runDuration   prometheus.Histogram
	runsCompleted *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	stepFailures  *prometheus.CounterVec
	compensations *prometheus.CounterVec
}

func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	f := promauto.With(reg)
	return &SagaMetrics{
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "run_duration_seconds",
			Help:      "Duration of saga runs.",
		}),
		runsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "runs_total",
			Help:      "Finished saga runs, per terminal state.",
		}, []string{"state"}),
		stepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "step_duration_seconds",
			Help:      "Duration of step actions, per step.",
		}, []string{"step"}),
		stepFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "step_failures_total",
			Help:      "Failed step actions, per step.",
		}, []string{"step"}),
		compensations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saga",
			Name:      "compensations_total",
			Help:      "Compensation attempts, per step and success.",
		}, []string{"step", "success"}),
	}
}

func (m *SagaMetrics) RunDuration() metrics.Timer { return newTimer(m.runDuration) }

func (m *SagaMetrics) RunCompleted(state saga.State) {
	m.runsCompleted.WithLabelValues(state.String()).Inc()
}

func (m *SagaMetrics) StepDuration(step string) metrics.Timer {
	return newTimer(m.stepDuration.WithLabelValues(step))
}

func (m *SagaMetrics) StepFailed(step string) {
	m.stepFailures.WithLabelValues(step).Inc()
}

func (m *SagaMetrics) CompensationAttempted(step string, success bool) {
	m.compensations.WithLabelValues(step, strconv.FormatBool(success)).Inc()
}

var _ saga.Metrics = (*SagaMetrics)(nil)
