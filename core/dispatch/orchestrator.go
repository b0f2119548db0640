package dispatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gridloop/recap/core/forecast"
	"github.com/gridloop/recap/core/logger"
	"github.com/gridloop/recap/core/optimize"
)

// Config holds the orchestrator's loop parameters.
type Config struct {
	// XInit is the initial state vector, in the optimizer's state order.
	XInit []float64
	// Start is the timestamp of XInit. Committed decisions are stamped one
	// interval later per step.
	Start time.Time
	// Dt is the control interval.
	Dt time.Duration
}

// Orchestrator owns exactly one optimizer, the named forecasters feeding it,
// and the current state vector. It is not safe for concurrent use: state
// feedback makes steps strictly sequential.
type Orchestrator struct {
	opt       optimize.Optimizer
	forecasts map[string]forecast.Forecaster
	log       logger.Logger

	xInit []float64
	start time.Time
	dt    time.Duration

	state   []float64
	step    int
	history History
}

// New validates the wiring and returns an orchestrator holding the supplied
// initial state. Forecaster names must exactly match the optimizer's reward
// names and every horizon must agree; mismatches fail here, before any
// forecaster or optimizer call, with optimize.ErrConfig.
func New(opt optimize.Optimizer, forecasts map[string]forecast.Forecaster, cfg Config, log logger.Logger) (*Orchestrator, error) {
	if opt == nil {
		return nil, fmt.Errorf("dispatch: optimizer is required: %w", optimize.ErrConfig)
	}
	if log == nil {
		log = nopLogger{}
	}
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("dispatch: dt must be positive: %w", optimize.ErrConfig)
	}
	if len(cfg.XInit) != opt.StateDim() {
		return nil, fmt.Errorf("dispatch: x_init has %d entries, optimizer wants %d: %w",
			len(cfg.XInit), opt.StateDim(), optimize.ErrConfig)
	}
	names := opt.RewardNames()
	if len(forecasts) != len(names) {
		return nil, fmt.Errorf("dispatch: %d forecasters configured, optimizer wants %d (%v): %w",
			len(forecasts), len(names), names, optimize.ErrConfig)
	}
	for _, name := range names {
		f, ok := forecasts[name]
		if !ok {
			return nil, fmt.Errorf("dispatch: no forecaster for reward %q: %w", name, optimize.ErrConfig)
		}
		if f.Horizon() != opt.Horizon() {
			return nil, fmt.Errorf("dispatch: forecaster %q horizon %d, optimizer horizon %d: %w",
				name, f.Horizon(), opt.Horizon(), optimize.ErrConfig)
		}
	}

	o := &Orchestrator{
		opt:       opt,
		forecasts: forecasts,
		log:       log,
		xInit:     cloneFloats(cfg.XInit),
		start:     cfg.Start,
		dt:        cfg.Dt,
		state:     cloneFloats(cfg.XInit),
	}
	o.history = newHistory(uuid.NewString(), opt.Variables(), names)
	return o, nil
}

// NextDispatch runs one step of the loop: gather all forecasts, solve the
// horizon, commit the first-step decision as the new current state. On any
// failure the error propagates and the current state is left untouched, so
// the same step can be retried.
func (o *Orchestrator) NextDispatch() (optimize.Result, error) {
	rewards := make(map[string][]float64, len(o.forecasts))
	for name, f := range o.forecasts {
		series, err := f.GenReward()
		if err != nil {
			return optimize.Result{}, fmt.Errorf("dispatch: forecast %q: %w", name, err)
		}
		rewards[name] = series
	}

	stepTime := o.start.Add(time.Duration(o.step) * o.dt)
	res, err := o.opt.NextDispatch(rewards, cloneFloats(o.state))
	if err != nil {
		return optimize.Result{}, fmt.Errorf("dispatch: optimize: %w", err)
	}

	o.history.append(o.step, stepTime, o.dt, o.state, res, rewards)
	o.state = cloneFloats(res.States)
	o.step++
	o.log.Debugw("dispatch step committed", map[string]any{
		"step":      o.step,
		"time":      stepTime.Add(o.dt),
		"objective": res.Objective,
	})
	return res, nil
}

// State returns a copy of the current state vector.
func (o *Orchestrator) State() []float64 { return cloneFloats(o.state) }

// Step reports how many steps have been committed.
func (o *Orchestrator) Step() int { return o.step }

// History returns the accumulated step records.
func (o *Orchestrator) History() History { return o.history.clone() }

// Reset restores the initial state and clears the history under a fresh run
// ID. Forecaster counters are left alone: they are monotonic for the life of
// each forecaster, so a true replay needs freshly constructed forecasters.
func (o *Orchestrator) Reset() {
	o.state = cloneFloats(o.xInit)
	o.step = 0
	o.history = newHistory(uuid.NewString(), o.opt.Variables(), o.opt.RewardNames())
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
