package optimize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gridloop/recap/core/horizon"
)

// ErrConfig indicates a wiring defect: inputs that cannot match what the
// optimizer was constructed for. It is never worth retrying.
var ErrConfig = errors.New("optimize: configuration mismatch")

// ErrInfeasible indicates the solver found no feasible trajectory for the
// given rewards and initial state.
var ErrInfeasible = errors.New("optimize: no feasible dispatch")

// Result is the decision for the step immediately following the supplied
// initial state. Slices follow the variable orderings declared at
// construction.
type Result struct {
	States       []float64
	Control      []float64
	Measurements []float64

	// Objective is the solved objective value, zero for optimizers that do
	// not compute one.
	Objective float64

	// Predicted holds the full solved horizon when the optimizer computes
	// one. Only the first step is authoritative; callers advancing state must
	// use States.
	Predicted *Trajectory
}

// Trajectory carries the per-variable horizon trajectories, one slice of
// horizon length per variable in declaration order.
type Trajectory struct {
	States  [][]float64
	Control [][]float64
}

// Optimizer solves one horizon-length trajectory problem per call.
type Optimizer interface {
	// NextDispatch solves for the given named reward series and initial
	// state. Inputs are not mutated. Fails with ErrConfig when the inputs do
	// not match the declared problem and ErrInfeasible when no feasible
	// trajectory exists.
	NextDispatch(rewards map[string][]float64, xInit []float64) (Result, error)

	// Horizon returns the number of steps in the look-ahead window.
	Horizon() int

	// StateDim returns the expected length of the initial state vector.
	StateDim() int

	// RewardNames lists the reward series the optimizer consumes, sorted.
	RewardNames() []string

	// Variables returns the declared variable orderings and bounds.
	Variables() VariableSet
}

// VariableSpec declares a group of decision variables: names with matching
// lower and upper bounds.
type VariableSpec struct {
	Order []string  `json:"order"`
	LB    []float64 `json:"lb"`
	UB    []float64 `json:"ub"`
}

// Len returns the number of variables in the group.
func (v VariableSpec) Len() int { return len(v.Order) }

// Validate checks the three lists are present, non-empty and equally sized.
func (v VariableSpec) Validate(name string) error {
	if len(v.Order) == 0 {
		return fmt.Errorf("%s: order list is required: %w", name, ErrConfig)
	}
	if len(v.LB) != len(v.Order) || len(v.UB) != len(v.Order) {
		return fmt.Errorf("%s: order, lb and ub must have the same length: %w", name, ErrConfig)
	}
	for i := range v.Order {
		if v.LB[i] > v.UB[i] {
			return fmt.Errorf("%s: variable %s has lb %v above ub %v: %w",
				name, v.Order[i], v.LB[i], v.UB[i], ErrConfig)
		}
	}
	return nil
}

// VariableSet groups the three variable families of a problem. Measurements
// may be empty.
type VariableSet struct {
	States       VariableSpec
	Control      VariableSpec
	Measurements VariableSpec
}

// Objective declares a linear reward-weighted objective. Each term pairs a
// reward series name with per-variable multipliers.
type Objective struct {
	// Sense is either "maximize" or "minimize".
	Sense string          `json:"sense"`
	Terms map[string]Term `json:"terms"`
}

// Term holds the multipliers applied to each variable family for one reward
// series.
type Term struct {
	StateMultiplier       []float64 `json:"state_multiplier"`
	ControlMultiplier     []float64 `json:"control_multiplier"`
	MeasurementMultiplier []float64 `json:"measurement_multiplier"`
}

const (
	SenseMaximize = "maximize"
	SenseMinimize = "minimize"
)

// problem carries the declaration shared by the built-in optimizers and
// implements the read-only parts of the Optimizer interface.
type problem struct {
	window      horizon.Window
	n           int
	vars        VariableSet
	objective   Objective
	rewardNames []string
}

func newProblem(w horizon.Window, vars VariableSet, obj Objective) (problem, error) {
	if err := w.Validate(); err != nil {
		return problem{}, fmt.Errorf("%v: %w", err, ErrConfig)
	}
	if err := vars.States.Validate("states"); err != nil {
		return problem{}, err
	}
	if err := vars.Control.Validate("control"); err != nil {
		return problem{}, err
	}
	if vars.Measurements.Len() > 0 {
		if err := vars.Measurements.Validate("measurements"); err != nil {
			return problem{}, err
		}
	}
	if obj.Sense != SenseMaximize && obj.Sense != SenseMinimize {
		return problem{}, fmt.Errorf("objective sense must be %q or %q, got %q: %w",
			SenseMaximize, SenseMinimize, obj.Sense, ErrConfig)
	}
	if len(obj.Terms) == 0 {
		return problem{}, fmt.Errorf("objective needs at least one reward term: %w", ErrConfig)
	}
	names := make([]string, 0, len(obj.Terms))
	for name, term := range obj.Terms {
		if len(term.StateMultiplier) != vars.States.Len() {
			return problem{}, fmt.Errorf("objective %s: state_multiplier length %d, want %d: %w",
				name, len(term.StateMultiplier), vars.States.Len(), ErrConfig)
		}
		if len(term.ControlMultiplier) != vars.Control.Len() {
			return problem{}, fmt.Errorf("objective %s: control_multiplier length %d, want %d: %w",
				name, len(term.ControlMultiplier), vars.Control.Len(), ErrConfig)
		}
		if len(term.MeasurementMultiplier) > 0 && len(term.MeasurementMultiplier) != vars.Measurements.Len() {
			return problem{}, fmt.Errorf("objective %s: measurement_multiplier length %d, want %d: %w",
				name, len(term.MeasurementMultiplier), vars.Measurements.Len(), ErrConfig)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return problem{window: w, n: w.Steps(), vars: vars, objective: obj, rewardNames: names}, nil
}

func (p *problem) Horizon() int  { return p.n }
func (p *problem) StateDim() int { return p.vars.States.Len() }

func (p *problem) RewardNames() []string {
	out := make([]string, len(p.rewardNames))
	copy(out, p.rewardNames)
	return out
}

func (p *problem) Variables() VariableSet { return p.vars }

// checkInputs enforces the call-time preconditions shared by all optimizers.
func (p *problem) checkInputs(rewards map[string][]float64, xInit []float64) error {
	if len(xInit) != p.StateDim() {
		return fmt.Errorf("x_init has %d entries, want %d: %w", len(xInit), p.StateDim(), ErrConfig)
	}
	for _, name := range p.rewardNames {
		series, ok := rewards[name]
		if !ok {
			return fmt.Errorf("reward series %q missing: %w", name, ErrConfig)
		}
		if len(series) != p.n {
			return fmt.Errorf("reward series %q has %d samples, want %d: %w",
				name, len(series), p.n, ErrConfig)
		}
	}
	if len(rewards) != len(p.rewardNames) {
		for name := range rewards {
			if _, ok := p.objective.Terms[name]; !ok {
				return fmt.Errorf("unexpected reward series %q: %w", name, ErrConfig)
			}
		}
	}
	return nil
}
