// Package prom implements the core metrics interfaces on the Prometheus
// client, exposing event store, repository and saga instrumentation under
// the "consist" namespace.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marcusPrado02/consist-go/core/metrics"
)

const namespace = "consist"

// timer adapts prometheus.Timer to metrics.Timer.
type timer struct {
	t *prometheus.Timer
}

func newTimer(o prometheus.Observer) metrics.Timer {
	return timer{t: prometheus.NewTimer(o)}
}

func (t timer) ObserveDuration() { t.t.ObserveDuration() }

var (
	_ metrics.Counter   = (prometheus.Counter)(nil)
	_ metrics.Histogram = (prometheus.Histogram)(nil)
)
