package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marcusPrado02/consist-go/core/es"
	"github.com/marcusPrado02/consist-go/core/metrics"
)

// ESMetrics implements es.ESMetrics on Prometheus collectors.
type ESMetrics struct {
	storeLoad      prometheus.Histogram
	storeAppend    prometheus.Histogram
	eventsAppended prometheus.Counter
	conflicts      prometheus.Counter
	repoLoad       *prometheus.HistogramVec
	repoSave       *prometheus.HistogramVec
}

func NewESMetrics(reg prometheus.Registerer) *ESMetrics {
	f := promauto.With(reg)
	return &ESMetrics{
		storeLoad: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "es",
			Name:      "store_load_duration_seconds",
			Help:      "Duration of event store loads.",
		}),
		storeAppend: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "es",
			Name:      "store_append_duration_seconds",
			Help:      "Duration of event store appends.",
		}),
		eventsAppended: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "es",
			Name:      "events_appended_total",
			Help:      "Events committed to the store.",
		}),
		conflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "es",
			Name:      "concurrency_conflicts_total",
			Help:      "Appends rejected by the optimistic version check.",
		}),
		repoLoad: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "es",
			Name:      "repo_load_duration_seconds",
			Help:      "Duration of aggregate loads, per aggregate type.",
		}, []string{"agg_type"}),
		repoSave: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "es",
			Name:      "repo_save_duration_seconds",
			Help:      "Duration of aggregate saves, per aggregate type.",
		}, []string{"agg_type"}),
	}
}

func (m *ESMetrics) StoreLoadDuration() metrics.Timer   { return newTimer(m.storeLoad) }
func (m *ESMetrics) StoreAppendDuration() metrics.Timer { return newTimer(m.storeAppend) }
func (m *ESMetrics) EventsAppended(count int)           { m.eventsAppended.Add(float64(count)) }
func (m *ESMetrics) ConcurrencyConflict()               { m.conflicts.Inc() }

func (m *ESMetrics) RepoLoadDuration(aggType string) metrics.Timer {
	return newTimer(m.repoLoad.WithLabelValues(aggType))
}

func (m *ESMetrics) RepoSaveDuration(aggType string) metrics.Timer {
	return newTimer(m.repoSave.WithLabelValues(aggType))
}

var _ es.ESMetrics = (*ESMetrics)(nil)
