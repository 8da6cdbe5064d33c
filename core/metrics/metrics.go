// Package metrics defines the minimal instrumentation surface used by the
// core packages. Implementations live in adapters (see adapters/prom); the
// no-op implementations here keep instrumentation optional.
package metrics

// Counter is a monotonically increasing value.
type Counter interface {
	Inc()
	// Add increments by delta. delta must be >= 0.
	Add(delta float64)
}

// Histogram samples observations such as operation latencies.
type Histogram interface {
	Observe(value float64)
}

// Timer records the duration of one operation. Obtain one at the start of
// the operation and call ObserveDuration when it completes:
//
//	defer m.StoreAppendDuration().ObserveDuration()
type Timer interface {
	ObserveDuration()
}
