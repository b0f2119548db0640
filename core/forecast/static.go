package forecast

import (
	"github.com/gridloop/recap/core/horizon"
)

// StaticConfig configures a constant-value forecaster.
type StaticConfig struct {
	TWindow float64 `json:"t_window"`
	Dt      float64 `json:"dt"`
	Value   float64 `json:"value"`
}

// Static serves the same value for every step of every horizon. Useful as a
// flat-price baseline and in wiring tests.
type Static struct {
	counter
	n     int
	value float64
}

// NewStatic builds a Static forecaster. A zero value is allowed; the default
// level of 10 is applied only when the field is left unset in configuration,
// which plugins handle before calling this.
func NewStatic(cfg StaticConfig) (*Static, error) {
	w := horizon.Window{TWindow: cfg.TWindow, Dt: cfg.Dt}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Static{n: w.Steps(), value: cfg.Value}, nil
}

// GenReward returns the constant level repeated across the horizon.
func (s *Static) GenReward() ([]float64, error) {
	out := make([]float64, s.n)
	for i := range out {
		out[i] = s.value
	}
	s.inc()
	return out, nil
}

// Horizon returns the number of samples per call.
func (s *Static) Horizon() int { return s.n }
