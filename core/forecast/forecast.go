package forecast

import "errors"

// ErrExhausted is returned when a finite-data forecaster has no further
// samples for the requested horizon. It is a terminal condition of the data,
// not a wiring defect, and callers may distinguish it with errors.Is.
var ErrExhausted = errors.New("forecast: historical data exhausted")

// Forecaster supplies reward/price samples over the look-ahead horizon.
type Forecaster interface {
	// GenReward returns the next horizon of samples, one value per step.
	// Each successful call advances the forecaster's counter by one.
	GenReward() ([]float64, error)

	// Calls reports how many horizons have been served so far. The value is
	// monotonic for the lifetime of the forecaster.
	Calls() int

	// Horizon returns the number of samples per GenReward call.
	Horizon() int
}

// counter tracks served horizons. Embedded by the built-in forecasters so
// each instance owns its own count.
type counter struct {
	n int
}

func (c *counter) inc() { c.n++ }

// Calls implements the Forecaster counter accessor.
func (c *counter) Calls() int { return c.n }
