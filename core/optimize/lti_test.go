package optimize

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// storageLTI models a single storage state drained by a single discharge
// control: x_t = x_{t-1} - u_{t-1}, horizon 4 steps.
func storageLTI(t *testing.T) *LTI {
	t.Helper()
	matrices := writeFile(t, "storage.json", `{"A": [[1]], "B": [[-1]]}`)
	opt, err := NewLTI(LTIConfig{
		TWindow:  20,
		Dt:       5,
		States:   VariableSpec{Order: []string{"stored"}, LB: []float64{0}, UB: []float64{10}},
		Control:  VariableSpec{Order: []string{"discharge"}, LB: []float64{0}, UB: []float64{1}},
		Matrices: matrices,
		Objective: Objective{
			Sense: SenseMaximize,
			Terms: map[string]Term{
				"LMP": {StateMultiplier: []float64{0}, ControlMultiplier: []float64{1}},
			},
		},
	})
	if err != nil {
		t.Fatalf("new lti: %v", err)
	}
	return opt
}

func TestLTIDispatchesHighestPrices(t *testing.T) {
	opt := storageLTI(t)
	// Two units of storage, prices favoring steps 1, 2 and 3. The unique
	// optimum discharges fully at steps 1 and 2 (storage-limited) and at
	// step 3 (unconstrained by the remaining horizon).
	rewards := map[string][]float64{"LMP": {1, 4, 2, 8}}
	res, err := opt.NextDispatch(rewards, []float64{2})
	if err != nil {
		t.Fatalf("next dispatch: %v", err)
	}
	if math.Abs(res.Control[0]-1) > 1e-6 {
		t.Fatalf("expected full discharge at step 1, got %v", res.Control[0])
	}
	// No discharge at step 0, so the committed state stays at 2.
	if math.Abs(res.States[0]-2) > 1e-6 {
		t.Fatalf("expected next state 2, got %v", res.States[0])
	}
	if math.Abs(res.Objective-14) > 1e-6 {
		t.Fatalf("expected objective 14, got %v", res.Objective)
	}
	if res.Predicted == nil || len(res.Predicted.States[0]) != 4 {
		t.Fatalf("expected 4-step predicted trajectory, got %+v", res.Predicted)
	}
	// The predicted storage level never dips below its bound.
	for i, x := range res.Predicted.States[0] {
		if x < -1e-6 {
			t.Fatalf("predicted storage negative at step %d: %v", i, x)
		}
	}
}

func TestLTIInfeasibleInitialState(t *testing.T) {
	opt := storageLTI(t)
	rewards := map[string][]float64{"LMP": {1, 1, 1, 1}}
	// Initial state above the declared upper bound cannot satisfy the
	// pinned first-step constraint.
	_, err := opt.NextDispatch(rewards, []float64{20})
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible got %v", err)
	}
}

func TestLTISolverFailurePropagates(t *testing.T) {
	old := lpSolve
	boom := errors.New("solver exploded")
	lpSolve = func([]float64, mat.Matrix, []float64, mat.Matrix, []float64) ([]float64, error) {
		return nil, boom
	}
	defer func() { lpSolve = old }()

	opt := storageLTI(t)
	_, err := opt.NextDispatch(map[string][]float64{"LMP": {1, 1, 1, 1}}, []float64{2})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error got %v", err)
	}
	if errors.Is(err, ErrInfeasible) {
		t.Fatalf("solver failure must not be reported as infeasible: %v", err)
	}
}

func TestLTIInputChecks(t *testing.T) {
	opt := storageLTI(t)
	if _, err := opt.NextDispatch(map[string][]float64{"LMP": {1, 2}}, []float64{2}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for short series got %v", err)
	}
	if _, err := opt.NextDispatch(map[string][]float64{"LMP": {1, 1, 1, 1}}, []float64{2, 2}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for state dim got %v", err)
	}
}

func TestLTIMeasurements(t *testing.T) {
	matrices := writeFile(t, "meas.json", `{"A": [[1]], "B": [[-1]], "C": [[2]]}`)
	opt, err := NewLTI(LTIConfig{
		TWindow:      20,
		Dt:           5,
		States:       VariableSpec{Order: []string{"stored"}, LB: []float64{0}, UB: []float64{10}},
		Control:      VariableSpec{Order: []string{"discharge"}, LB: []float64{0}, UB: []float64{1}},
		Measurements: VariableSpec{Order: []string{"level_pct"}, LB: []float64{0}, UB: []float64{20}},
		Matrices:     matrices,
		Objective: Objective{
			Sense: SenseMaximize,
			Terms: map[string]Term{
				"LMP": {StateMultiplier: []float64{0}, ControlMultiplier: []float64{1}},
			},
		},
	})
	if err != nil {
		t.Fatalf("new lti: %v", err)
	}
	res, err := opt.NextDispatch(map[string][]float64{"LMP": {1, 4, 2, 8}}, []float64{2})
	if err != nil {
		t.Fatalf("next dispatch: %v", err)
	}
	// y = 2x at the committed step.
	if math.Abs(res.Measurements[0]-2*res.States[0]) > 1e-6 {
		t.Fatalf("measurement %v does not track state %v", res.Measurements[0], res.States[0])
	}
}

func TestLTIMatrixDimsChecked(t *testing.T) {
	matrices := writeFile(t, "wide.json", `{"A": [[1, 0]], "B": [[-1]]}`)
	_, err := NewLTI(LTIConfig{
		TWindow: 20, Dt: 5,
		States:   VariableSpec{Order: []string{"stored"}, LB: []float64{0}, UB: []float64{10}},
		Control:  VariableSpec{Order: []string{"discharge"}, LB: []float64{0}, UB: []float64{1}},
		Matrices: matrices,
		Objective: Objective{
			Sense: SenseMaximize,
			Terms: map[string]Term{"LMP": {StateMultiplier: []float64{0}, ControlMultiplier: []float64{1}}},
		},
	})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for A dims got %v", err)
	}
}

func TestLTIShortHorizonRejected(t *testing.T) {
	matrices := writeFile(t, "ab.json", `{"A": [[1]], "B": [[-1]]}`)
	_, err := NewLTI(LTIConfig{
		TWindow: 5, Dt: 5,
		States:   VariableSpec{Order: []string{"stored"}, LB: []float64{0}, UB: []float64{10}},
		Control:  VariableSpec{Order: []string{"discharge"}, LB: []float64{0}, UB: []float64{1}},
		Matrices: matrices,
		Objective: Objective{
			Sense: SenseMaximize,
			Terms: map[string]Term{"LMP": {StateMultiplier: []float64{0}, ControlMultiplier: []float64{1}}},
		},
	})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for one-step horizon got %v", err)
	}
}
