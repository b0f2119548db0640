package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/gridloop/recap/core/metrics"
)

// PromSink records dispatch steps in Prometheus metrics.
type PromSink struct {
	steps   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewPromSink registers dispatch metrics on the provided Prometheus
// registerer. If reg is nil, the default registerer is used. If the
// collectors are already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_steps_total",
		Help: "Total number of dispatch loop steps by outcome",
	}, []string{"outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_step_duration_seconds",
		Help:    "Time spent gathering forecasts and solving one step",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	if err := reg.Register(steps); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			steps = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{steps: steps, latency: latency}, nil
}

// RecordStep increments the step counter and observes the latency for each
// metric.
func (s *PromSink) RecordStep(ms []coremetrics.StepMetric) error {
	for _, m := range ms {
		s.steps.WithLabelValues(m.Outcome).Inc()
		s.latency.WithLabelValues(m.Outcome).Observe(m.Duration.Seconds())
	}
	return nil
}
