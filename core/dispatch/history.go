package dispatch

import (
	"time"

	"github.com/gridloop/recap/core/optimize"
)

// Columns names the values recorded per step, in the optimizer's declared
// variable order plus the sorted reward names.
type Columns struct {
	States       []string
	Control      []string
	Measurements []string
	Rewards      []string
}

// InitialRecord is the state handed to the optimizer at the start of a step.
type InitialRecord struct {
	Step   int
	Time   time.Time
	States []float64
}

// StepRecord is one committed decision: the trajectory values at the step
// after the initial state, plus the forecasted reward at that step.
type StepRecord struct {
	Step         int
	Time         time.Time
	States       []float64
	Control      []float64
	Measurements []float64
	Rewards      []float64
}

// History accumulates the loop's per-step records under a run ID.
type History struct {
	Run     string
	Columns Columns
	Initial []InitialRecord
	Optimal []StepRecord
}

func newHistory(run string, vars optimize.VariableSet, rewardNames []string) History {
	return History{
		Run: run,
		Columns: Columns{
			States:       append([]string(nil), vars.States.Order...),
			Control:      append([]string(nil), vars.Control.Order...),
			Measurements: append([]string(nil), vars.Measurements.Order...),
			Rewards:      append([]string(nil), rewardNames...),
		},
	}
}

func (h *History) append(step int, stepTime time.Time, dt time.Duration, xInit []float64, res optimize.Result, rewards map[string][]float64) {
	h.Initial = append(h.Initial, InitialRecord{
		Step:   step,
		Time:   stepTime,
		States: cloneFloats(xInit),
	})
	rec := StepRecord{
		Step:         step,
		Time:         stepTime.Add(dt),
		States:       cloneFloats(res.States),
		Control:      cloneFloats(res.Control),
		Measurements: cloneFloats(res.Measurements),
		Rewards:      make([]float64, 0, len(h.Columns.Rewards)),
	}
	// The forecast value at the committed step, series index 1.
	for _, name := range h.Columns.Rewards {
		series := rewards[name]
		switch {
		case len(series) > 1:
			rec.Rewards = append(rec.Rewards, series[1])
		case len(series) == 1:
			rec.Rewards = append(rec.Rewards, series[0])
		default:
			rec.Rewards = append(rec.Rewards, 0)
		}
	}
	h.Optimal = append(h.Optimal, rec)
}

func (h History) clone() History {
	out := h
	out.Initial = append([]InitialRecord(nil), h.Initial...)
	out.Optimal = append([]StepRecord(nil), h.Optimal...)
	return out
}
