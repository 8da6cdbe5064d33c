package es

import "github.com/marcusPrado02/consist-go/core/metrics"

// ESMetrics is the instrumentation surface of the event-sourcing pillar.
// Implementations must be safe for concurrent use; see adapters/prom.
type ESMetrics interface {
	StoreLoadDuration() metrics.Timer
	StoreAppendDuration() metrics.Timer
	EventsAppended(count int)
	ConcurrencyConflict()

	RepoLoadDuration(aggType string) metrics.Timer
	RepoSaveDuration(aggType string) metrics.Timer
}

type nopESMetrics struct{}

func (nopESMetrics) StoreLoadDuration() metrics.Timer   { return metrics.NopTimer() }
func (nopESMetrics) StoreAppendDuration() metrics.Timer { return metrics.NopTimer() }
func (nopESMetrics) EventsAppended(int)                 {}
func (nopESMetrics) ConcurrencyConflict()               {}

func (nopESMetrics) RepoLoadDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopESMetrics) RepoSaveDuration(string) metrics.Timer { return metrics.NopTimer() }

// NopESMetrics returns the no-op ESMetrics used when none is configured.
func NopESMetrics() ESMetrics { return nopESMetrics{} }

// ESMetricsOption sets the metrics implementation for stores and
// repositories.
type ESMetricsOption struct{ m ESMetrics }

func WithMetrics(m ESMetrics) ESMetricsOption { return ESMetricsOption{m: m} }

func (o ESMetricsOption) applyToStore(s *storeOptions)     { s.metrics = o.m }
func (o ESMetricsOption) applyToRepository(r *repoOptions) { r.metrics = o.m }
