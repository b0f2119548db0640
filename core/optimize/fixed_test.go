package optimize

import (
	"errors"
	"testing"
)

func fixedConfig() FixedConfig {
	return FixedConfig{
		TWindow: 20, Dt: 5,
		States:  VariableSpec{Order: []string{"soc"}, LB: []float64{0}, UB: []float64{100}},
		Control: VariableSpec{Order: []string{"charge", "discharge"}, LB: []float64{0, 0}, UB: []float64{10, 10}},
		Objective: Objective{
			Sense: SenseMaximize,
			Terms: map[string]Term{
				"LMP": {StateMultiplier: []float64{0}, ControlMultiplier: []float64{-1, 1}},
			},
		},
	}
}

func TestFixedEchoesState(t *testing.T) {
	opt, err := NewFixed(fixedConfig())
	if err != nil {
		t.Fatalf("new fixed: %v", err)
	}
	if opt.Horizon() != 4 || opt.StateDim() != 1 {
		t.Fatalf("unexpected horizon %d state dim %d", opt.Horizon(), opt.StateDim())
	}
	rewards := map[string][]float64{"LMP": {1, 2, 3, 4}}
	res, err := opt.NextDispatch(rewards, []float64{50})
	if err != nil {
		t.Fatalf("next dispatch: %v", err)
	}
	if res.States[0] != 50 {
		t.Fatalf("expected state echoed, got %v", res.States)
	}
	if len(res.Control) != 2 || res.Control[0] != 0 || res.Control[1] != 0 {
		t.Fatalf("expected zero control, got %v", res.Control)
	}
	if res.Measurements != nil {
		t.Fatalf("no measurements declared, got %v", res.Measurements)
	}
}

func TestFixedInputChecks(t *testing.T) {
	opt, err := NewFixed(fixedConfig())
	if err != nil {
		t.Fatalf("new fixed: %v", err)
	}
	cases := []struct {
		name    string
		rewards map[string][]float64
		xInit   []float64
	}{
		{"short series", map[string][]float64{"LMP": {1, 2}}, []float64{50}},
		{"missing series", map[string][]float64{}, []float64{50}},
		{"unknown series", map[string][]float64{"LMP": {1, 2, 3, 4}, "demand": {1, 2, 3, 4}}, []float64{50}},
		{"wrong state dim", map[string][]float64{"LMP": {1, 2, 3, 4}}, []float64{50, 1}},
	}
	for _, tc := range cases {
		if _, err := opt.NextDispatch(tc.rewards, tc.xInit); !errors.Is(err, ErrConfig) {
			t.Fatalf("%s: expected ErrConfig got %v", tc.name, err)
		}
	}
}

func TestProblemValidation(t *testing.T) {
	cfg := fixedConfig()
	cfg.Objective.Sense = "sideways"
	if _, err := NewFixed(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for bad sense, got %v", err)
	}

	cfg = fixedConfig()
	cfg.Objective.Terms["LMP"] = Term{StateMultiplier: []float64{0, 0}, ControlMultiplier: []float64{-1, 1}}
	if _, err := NewFixed(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for multiplier length, got %v", err)
	}

	cfg = fixedConfig()
	cfg.States.LB = []float64{200}
	if _, err := NewFixed(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for crossed bounds, got %v", err)
	}
}

func TestRewardNamesSorted(t *testing.T) {
	cfg := fixedConfig()
	cfg.Objective.Terms["demand"] = Term{StateMultiplier: []float64{1}, ControlMultiplier: []float64{0, 0}}
	opt, err := NewFixed(cfg)
	if err != nil {
		t.Fatalf("new fixed: %v", err)
	}
	names := opt.RewardNames()
	if len(names) != 2 || names[0] != "LMP" || names[1] != "demand" {
		t.Fatalf("expected sorted names got %v", names)
	}
}
