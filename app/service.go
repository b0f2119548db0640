package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridloop/recap/app/plugins"
	"github.com/gridloop/recap/config"
	"github.com/gridloop/recap/core/dispatch"
	"github.com/gridloop/recap/core/forecast"
	"github.com/gridloop/recap/core/horizon"
	coremetrics "github.com/gridloop/recap/core/metrics"
	"github.com/gridloop/recap/core/optimize"
	"github.com/gridloop/recap/infra/logger"
	"github.com/gridloop/recap/infra/metrics"
	"github.com/gridloop/recap/infra/mqtt"
	"github.com/gridloop/recap/internal/eventbus"
	"github.com/gridloop/recap/pkg/export"
)

// StepEvent is published on the internal bus after every pass through the
// dispatch loop, successful or not.
type StepEvent struct {
	Run       string    `json:"run"`
	Step      int       `json:"step"`
	Time      time.Time `json:"time"`
	Outcome   string    `json:"outcome"`
	Objective float64   `json:"objective"`
	States    []float64 `json:"states"`
	Control   []float64 `json:"control,omitempty"`
	Duration  float64   `json:"duration_ms"`
}

// Service runs the dispatch loop described by a configuration: it builds the
// optimizer and forecasters from the registries, steps the orchestrator, fans
// step events out to the configured sinks and writes the history afterwards.
type Service struct {
	orch *dispatch.Orchestrator
	cfg  *config.Config
	bus  *eventbus.Bus[StepEvent]
	sink coremetrics.MetricsSink
	pub  *mqtt.Publisher
	log  logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	opt, err := plugins.Optimizers.Create(cfg.Optimization)
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	forecasts := make(map[string]forecast.Forecaster, len(cfg.Reward))
	for name, mc := range cfg.Reward {
		f, err := plugins.Forecasters.Create(mc)
		if err != nil {
			return nil, fmt.Errorf("forecaster %q: %w", name, err)
		}
		forecasts[name] = f
	}

	start, err := cfg.Run.StartTime()
	if err != nil {
		return nil, err
	}
	orch, err := dispatch.New(opt, forecasts, dispatch.Config{
		XInit: cfg.Run.XInit,
		Start: start,
		Dt:    horizon.Window{TWindow: cfg.TWindow, Dt: cfg.Dt}.Interval(),
	}, logger.New("dispatch"))
	if err != nil {
		return nil, err
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Sinks.PrometheusEnabled {
		sink, err := metrics.NewPromSink(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Sinks.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Sinks.Influx))
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = coremetrics.NewMultiSink(sinks...)
	}

	var pub *mqtt.Publisher
	if cfg.Sinks.MQTTEnabled {
		pub, err = mqtt.NewPublisher(cfg.Sinks.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}

	return &Service{
		orch: orch,
		cfg:  cfg,
		bus:  eventbus.New[StepEvent](),
		sink: sink,
		pub:  pub,
		log:  logg,
	}, nil
}

// Orchestrator exposes the underlying loop, mainly for inspection in tests.
func (s *Service) Orchestrator() *dispatch.Orchestrator { return s.orch }

// Bus exposes the step event bus so additional observers can subscribe
// before Run.
func (s *Service) Bus() *eventbus.Bus[StepEvent] { return s.bus }

// Run executes the configured number of dispatch steps, or keeps going until
// a forecaster runs out of data when the step count is zero. Exhaustion ends
// the run cleanly; any other failure aborts it.
func (s *Service) Run(ctx context.Context) error {
	// The metrics endpoint lives exactly as long as the run.
	runCtx, stopServing := context.WithCancel(ctx)
	defer stopServing()
	if s.cfg.Sinks.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(runCtx, ":"+s.cfg.Sinks.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	sub := s.bus.Subscribe()
	go func() {
		defer close(done)
		for ev := range sub {
			if err := s.sink.RecordStep([]coremetrics.StepMetric{{
				Run:       ev.Run,
				Step:      ev.Step,
				Time:      ev.Time,
				Duration:  time.Duration(ev.Duration * float64(time.Millisecond)),
				Objective: ev.Objective,
				Outcome:   ev.Outcome,
			}}); err != nil {
				s.log.Warnf("metrics sink: %v", err)
			}
			if s.pub != nil {
				if err := s.pub.Publish(ev); err != nil {
					s.log.Warnf("mqtt publish: %v", err)
				}
			}
		}
	}()

	run := s.orch.History().Run
	var loopErr error
	for i := 0; s.cfg.Run.Steps == 0 || i < s.cfg.Run.Steps; i++ {
		if err := ctx.Err(); err != nil {
			loopErr = err
			break
		}
		t0 := time.Now()
		res, err := s.orch.NextDispatch()
		ev := StepEvent{
			Run:      run,
			Step:     i,
			Time:     time.Now().UTC(),
			Duration: float64(time.Since(t0)) / float64(time.Millisecond),
			Outcome:  outcome(err),
		}
		if err == nil {
			ev.Objective = res.Objective
			ev.States = res.States
			ev.Control = res.Control
		}
		s.bus.Publish(ev)
		if err != nil {
			if errors.Is(err, forecast.ErrExhausted) {
				s.log.Infof("forecast data exhausted after %d steps", i)
				break
			}
			loopErr = err
			break
		}
	}

	s.bus.Close()
	<-done
	if loopErr != nil {
		return loopErr
	}
	return s.writeOutputs()
}

// Close releases the sinks held by the service.
func (s *Service) Close() {
	if s.pub != nil {
		s.pub.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return coremetrics.OutcomeOK
	case errors.Is(err, optimize.ErrInfeasible):
		return coremetrics.OutcomeInfeasible
	case errors.Is(err, forecast.ErrExhausted):
		return coremetrics.OutcomeExhausted
	default:
		return coremetrics.OutcomeError
	}
}

func (s *Service) writeOutputs() error {
	h := s.orch.History()
	write := func(path string, fn func(f *os.File) error) error {
		if path == "" {
			return nil
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return fn(f)
	}
	if err := write(s.cfg.Sinks.CSV, func(f *os.File) error {
		return export.WriteCSV(f, h)
	}); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := write(s.cfg.Sinks.InitialCSV, func(f *os.File) error {
		return export.WriteInitialCSV(f, h)
	}); err != nil {
		return fmt.Errorf("write initial csv: %w", err)
	}
	if err := write(s.cfg.Sinks.JSON, func(f *os.File) error {
		return export.WriteJSON(f, h)
	}); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
