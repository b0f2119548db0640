package metrics

import "time"

// StepMetric describes one pass through the dispatch loop for observability
// purposes.
type StepMetric struct {
	Run       string
	Step      int
	Time      time.Time
	Duration  time.Duration
	Objective float64
	// Outcome is "ok", "infeasible", "exhausted" or "error".
	Outcome string
}

// Sink outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeInfeasible = "infeasible"
	OutcomeExhausted  = "exhausted"
	OutcomeError      = "error"
)

// MetricsSink records dispatch steps for observability purposes.
type MetricsSink interface {
	RecordStep(ms []StepMetric) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStep([]StepMetric) error { return nil }

// MultiSink fans step metrics out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStep forwards the metrics to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordStep(ms []StepMetric) error {
	var first error
	for _, s := range m.Sinks {
		if err := s.RecordStep(ms); err != nil && first == nil {
			first = err
		}
	}
	return first
}
