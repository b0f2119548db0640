// Package horizon defines the look-ahead window shared by forecasters and
// optimizers.
package horizon

import (
	"fmt"
	"math"
	"time"
)

// Window is a look-ahead horizon: a total span and a control interval, both
// in minutes. Every module attached to one dispatch loop must agree on it.
type Window struct {
	TWindow float64 `json:"t_window"`
	Dt      float64 `json:"dt"`
}

// Validate checks the window is positive and spans a whole number of
// intervals.
func (w Window) Validate() error {
	if w.Dt <= 0 {
		return fmt.Errorf("horizon: dt must be positive, got %v", w.Dt)
	}
	if w.TWindow <= 0 {
		return fmt.Errorf("horizon: t_window must be positive, got %v", w.TWindow)
	}
	steps := w.TWindow / w.Dt
	if math.Abs(steps-math.Round(steps)) > 1e-9 {
		return fmt.Errorf("horizon: t_window %v is not a multiple of dt %v", w.TWindow, w.Dt)
	}
	return nil
}

// Steps returns the number of control intervals in the window.
func (w Window) Steps() int {
	return int(math.Round(w.TWindow / w.Dt))
}

// Interval returns the control interval as a duration.
func (w Window) Interval() time.Duration {
	return time.Duration(w.Dt * float64(time.Minute))
}
