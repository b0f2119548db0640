package forecast

import (
	"math"

	"github.com/gridloop/recap/core/horizon"
)

// SinusoidConfig configures a sinusoidal forecaster. Values are taken as
// given, including zeros; the configuration layer fills in defaults for keys
// left unset.
type SinusoidConfig struct {
	TWindow   float64 `json:"t_window"`
	Dt        float64 `json:"dt"`
	Amplitude float64 `json:"amplitude"`
	Phase     float64 `json:"phase"`
	Frequency float64 `json:"frequency"`
	Offset    float64 `json:"offset"`
}

// Defaults produce one full cycle per 144 steps (a day at 10-minute steps).
// They are applied per absent key, never for an explicit zero.
var (
	DefaultAmplitude = 10.0
	DefaultPhase     = math.Pi / 4
	DefaultFrequency = 2 * math.Pi / 144
	DefaultOffset    = 10.0
)

// Sinusoid generates amplitude*sin(frequency*x + phase) + offset, where x
// runs from the call counter over the horizon. Successive calls therefore
// slide one step along the same wave.
type Sinusoid struct {
	counter
	n         int
	amplitude float64
	phase     float64
	frequency float64
	offset    float64
}

// NewSinusoid builds a Sinusoid forecaster from its configuration.
func NewSinusoid(cfg SinusoidConfig) (*Sinusoid, error) {
	w := horizon.Window{TWindow: cfg.TWindow, Dt: cfg.Dt}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Sinusoid{
		n:         w.Steps(),
		amplitude: cfg.Amplitude,
		phase:     cfg.Phase,
		frequency: cfg.Frequency,
		offset:    cfg.Offset,
	}, nil
}

// GenReward returns the next horizon of the wave, starting at the current
// counter value.
func (s *Sinusoid) GenReward() ([]float64, error) {
	out := make([]float64, s.n)
	for j := range out {
		x := float64(s.Calls() + j)
		out[j] = s.offset + s.amplitude*math.Sin(s.frequency*x+s.phase)
	}
	s.inc()
	return out, nil
}

// Horizon returns the number of samples per call.
func (s *Sinusoid) Horizon() int { return s.n }
