package optimize

import "github.com/gridloop/recap/core/horizon"

// FixedConfig configures the Fixed optimizer.
type FixedConfig struct {
	TWindow      float64      `json:"t_window"`
	Dt           float64      `json:"dt"`
	States       VariableSpec `json:"states"`
	Control      VariableSpec `json:"control"`
	Measurements VariableSpec `json:"measurements"`
	Objective    Objective    `json:"objective"`
}

// Fixed is the do-nothing optimizer: it echoes the initial state and zero
// control. It exercises the full contract without a solver, which makes it
// the reference implementation for wiring and a safe registry default.
type Fixed struct {
	problem
}

// NewFixed builds a Fixed optimizer, validating the variable declaration the
// same way the solving optimizers do.
func NewFixed(cfg FixedConfig) (*Fixed, error) {
	p, err := newProblem(
		horizon.Window{TWindow: cfg.TWindow, Dt: cfg.Dt},
		VariableSet{States: cfg.States, Control: cfg.Control, Measurements: cfg.Measurements},
		cfg.Objective,
	)
	if err != nil {
		return nil, err
	}
	return &Fixed{problem: p}, nil
}

// NextDispatch validates the inputs and returns the initial state unchanged
// with zero control and measurements.
func (f *Fixed) NextDispatch(rewards map[string][]float64, xInit []float64) (Result, error) {
	if err := f.checkInputs(rewards, xInit); err != nil {
		return Result{}, err
	}
	res := Result{
		States:  make([]float64, len(xInit)),
		Control: make([]float64, f.vars.Control.Len()),
	}
	copy(res.States, xInit)
	if n := f.vars.Measurements.Len(); n > 0 {
		res.Measurements = make([]float64, n)
	}
	return res, nil
}
