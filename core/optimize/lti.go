package optimize

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/gridloop/recap/core/horizon"
)

// LTIConfig configures the linear time-invariant MPC optimizer.
type LTIConfig struct {
	TWindow      float64      `json:"t_window"`
	Dt           float64      `json:"dt"`
	States       VariableSpec `json:"states"`
	Control      VariableSpec `json:"control"`
	Measurements VariableSpec `json:"measurements"`
	Objective    Objective    `json:"objective"`
	// Matrices is the path to the A, B, C system matrices (json or xml).
	Matrices string `json:"matrices"`
}

// LTI solves a receding-horizon dispatch over the state-space model
//
//	x_k = A x_{k-1} + B u_{k-1}
//	y_k = C x_k
//
// with box bounds on all variables and a linear reward-weighted objective.
// Each call assembles the problem as a linear program and solves it with the
// simplex method. The reported decision is the trajectory at index 1, one
// control interval after the initial state, so the horizon must span at least
// two steps.
type LTI struct {
	problem
	nx, ny int
	nu     int

	// Static LP structure, built once: equality rows for dynamics and
	// measurements, inequality rows for variable bounds. Only the objective
	// vector and the initial-state entries of beq change per call.
	aeq *mat.Dense
	beq []float64
	g   *mat.Dense
	h   []float64
}

// NewLTI loads the system matrices and assembles the LP skeleton.
func NewLTI(cfg LTIConfig) (*LTI, error) {
	p, err := newProblem(
		horizon.Window{TWindow: cfg.TWindow, Dt: cfg.Dt},
		VariableSet{States: cfg.States, Control: cfg.Control, Measurements: cfg.Measurements},
		cfg.Objective,
	)
	if err != nil {
		return nil, err
	}
	if p.n < 2 {
		return nil, fmt.Errorf("lti: horizon of %d steps cannot report a next step, need at least 2: %w",
			p.n, ErrConfig)
	}
	m, err := LoadMatrices(cfg.Matrices)
	if err != nil {
		return nil, err
	}
	o := &LTI{
		problem: p,
		nx:      p.vars.States.Len(),
		nu:      p.vars.Control.Len(),
		ny:      p.vars.Measurements.Len(),
	}
	if err := o.checkMatrices(m); err != nil {
		return nil, err
	}
	o.buildEqualities(m)
	o.buildBounds()
	return o, nil
}

func (o *LTI) checkMatrices(m Matrices) error {
	if r, c := m.A.Dims(); r != o.nx || c != o.nx {
		return fmt.Errorf("lti: A is %dx%d, want %dx%d: %w", r, c, o.nx, o.nx, ErrConfig)
	}
	if r, c := m.B.Dims(); r != o.nx || c != o.nu {
		return fmt.Errorf("lti: B is %dx%d, want %dx%d: %w", r, c, o.nx, o.nu, ErrConfig)
	}
	if o.ny > 0 {
		if m.C == nil {
			return fmt.Errorf("lti: measurements declared but no C matrix: %w", ErrConfig)
		}
		if r, c := m.C.Dims(); r != o.ny || c != o.nx {
			return fmt.Errorf("lti: C is %dx%d, want %dx%d: %w", r, c, o.ny, o.nx, ErrConfig)
		}
	}
	return nil
}

// Flat variable layout: all states, then all controls, then all measurements,
// each variable contiguous over the horizon.
func (o *LTI) xAt(i, t int) int { return i*o.n + t }
func (o *LTI) uAt(k, t int) int { return o.nx*o.n + k*o.n + t }
func (o *LTI) yAt(j, t int) int { return (o.nx+o.nu)*o.n + j*o.n + t }
func (o *LTI) numVars() int     { return (o.nx + o.nu + o.ny) * o.n }

func (o *LTI) buildEqualities(m Matrices) {
	rows := o.nx + o.nx*(o.n-1) + o.ny*o.n
	o.aeq = mat.NewDense(rows, o.numVars(), nil)
	o.beq = make([]float64, rows)
	row := 0
	// x_0 pinned to the supplied initial state, values filled per call.
	for i := 0; i < o.nx; i++ {
		o.aeq.Set(row, o.xAt(i, 0), 1)
		row++
	}
	// x_t = A x_{t-1} + B u_{t-1}
	for t := 1; t < o.n; t++ {
		for i := 0; i < o.nx; i++ {
			o.aeq.Set(row, o.xAt(i, t), 1)
			for j := 0; j < o.nx; j++ {
				o.aeq.Set(row, o.xAt(j, t-1), -m.A.At(i, j))
			}
			for k := 0; k < o.nu; k++ {
				o.aeq.Set(row, o.uAt(k, t-1), -m.B.At(i, k))
			}
			row++
		}
	}
	// y_t = C x_t
	for t := 0; t < o.n; t++ {
		for j := 0; j < o.ny; j++ {
			o.aeq.Set(row, o.yAt(j, t), 1)
			for i := 0; i < o.nx; i++ {
				o.aeq.Set(row, o.xAt(i, t), -m.C.At(j, i))
			}
			row++
		}
	}
}

func (o *LTI) buildBounds() {
	nv := o.numVars()
	lb := make([]float64, nv)
	ub := make([]float64, nv)
	fill := func(spec VariableSpec, at func(i, t int) int) {
		for i := 0; i < spec.Len(); i++ {
			for t := 0; t < o.n; t++ {
				lb[at(i, t)] = spec.LB[i]
				ub[at(i, t)] = spec.UB[i]
			}
		}
	}
	fill(o.vars.States, o.xAt)
	fill(o.vars.Control, o.uAt)
	if o.ny > 0 {
		fill(o.vars.Measurements, o.yAt)
	}
	o.g = mat.NewDense(2*nv, nv, nil)
	o.h = make([]float64, 2*nv)
	for v := 0; v < nv; v++ {
		o.g.Set(2*v, v, 1)
		o.h[2*v] = ub[v]
		o.g.Set(2*v+1, v, -1)
		o.h[2*v+1] = -lb[v]
	}
}

// objectiveCoeffs assembles the per-call cost vector from the reward series.
// Simplex minimizes, so a maximize sense negates the coefficients.
func (o *LTI) objectiveCoeffs(rewards map[string][]float64) []float64 {
	c := make([]float64, o.numVars())
	for name, term := range o.objective.Terms {
		price := rewards[name]
		for t := 0; t < o.n; t++ {
			for j, w := range term.StateMultiplier {
				c[o.xAt(j, t)] += price[t] * w
			}
			for k, w := range term.ControlMultiplier {
				c[o.uAt(k, t)] += price[t] * w
			}
			for j, w := range term.MeasurementMultiplier {
				c[o.yAt(j, t)] += price[t] * w
			}
		}
	}
	if o.objective.Sense == SenseMaximize {
		for i := range c {
			c[i] = -c[i]
		}
	}
	return c
}

// lpSolve points to the function used to solve the LP. It can be overridden
// in tests to simulate solver failures.
var lpSolve = solveLP

// solveLP converts the general-form program to standard form and runs the
// simplex algorithm, recovering the free variables from their split parts.
func solveLP(c []float64, g mat.Matrix, h []float64, aeq mat.Matrix, beq []float64) ([]float64, error) {
	cStd, aStd, bStd := lp.Convert(c, g, h, aeq, beq)
	_, solStd, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	if err != nil {
		return nil, err
	}
	sol := make([]float64, len(c))
	for i := range sol {
		sol[i] = solStd[i] - solStd[len(c)+i]
	}
	return sol, nil
}

// NextDispatch solves the horizon and reports the decision at the step after
// xInit.
func (o *LTI) NextDispatch(rewards map[string][]float64, xInit []float64) (Result, error) {
	if err := o.checkInputs(rewards, xInit); err != nil {
		return Result{}, err
	}
	c := o.objectiveCoeffs(rewards)
	beq := make([]float64, len(o.beq))
	copy(beq, o.beq)
	copy(beq[:o.nx], xInit)

	sol, err := lpSolve(c, o.g, o.h, o.aeq, beq)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return Result{}, fmt.Errorf("lti: %v: %w", err, ErrInfeasible)
		}
		return Result{}, fmt.Errorf("lti: simplex: %w", err)
	}

	res := Result{
		States:  make([]float64, o.nx),
		Control: make([]float64, o.nu),
		Predicted: &Trajectory{
			States:  make([][]float64, o.nx),
			Control: make([][]float64, o.nu),
		},
	}
	for i := 0; i < o.nx; i++ {
		res.States[i] = sol[o.xAt(i, 1)]
		traj := make([]float64, o.n)
		for t := 0; t < o.n; t++ {
			traj[t] = sol[o.xAt(i, t)]
		}
		res.Predicted.States[i] = traj
	}
	for k := 0; k < o.nu; k++ {
		res.Control[k] = sol[o.uAt(k, 1)]
		traj := make([]float64, o.n)
		for t := 0; t < o.n; t++ {
			traj[t] = sol[o.uAt(k, t)]
		}
		res.Predicted.Control[k] = traj
	}
	if o.ny > 0 {
		res.Measurements = make([]float64, o.ny)
		for j := 0; j < o.ny; j++ {
			res.Measurements[j] = sol[o.yAt(j, 1)]
		}
	}
	for i, v := range sol {
		res.Objective += c[i] * v
	}
	if o.objective.Sense == SenseMaximize {
		res.Objective = -res.Objective
	}
	return res, nil
}
