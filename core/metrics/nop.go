package metrics

type (
	nopCounter   struct{}
	nopHistogram struct{}
	nopTimer     struct{}
)

func (nopCounter) Inc()              {}
func (nopCounter) Add(float64)       {}
func (nopHistogram) Observe(float64) {}
func (nopTimer) ObserveDuration()    {}

// NopCounter returns a Counter that discards all values.
func NopCounter() Counter { return nopCounter{} }

// NopHistogram returns a Histogram that discards all observations.
func NopHistogram() Histogram { return nopHistogram{} }

// NopTimer returns a Timer that records nothing.
func NopTimer() Timer { return nopTimer{} }
