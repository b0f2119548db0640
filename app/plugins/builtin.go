package plugins

import (
	"github.com/gridloop/recap/core/factory"
	"github.com/gridloop/recap/core/forecast"
	"github.com/gridloop/recap/core/optimize"
)

func init() {
	Optimizers.MustRegister("fixed", func(conf map[string]any) (optimize.Optimizer, error) {
		var c optimize.FixedConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return optimize.NewFixed(c)
	})
	Optimizers.MustRegister("lti", func(conf map[string]any) (optimize.Optimizer, error) {
		var c optimize.LTIConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return optimize.NewLTI(c)
	})

	Forecasters.MustRegister("static", func(conf map[string]any) (forecast.Forecaster, error) {
		var c forecast.StaticConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		// An absent value means the default level, an explicit zero is kept.
		if _, ok := conf["value"]; !ok {
			c.Value = 10
		}
		return forecast.NewStatic(c)
	})
	Forecasters.MustRegister("sinusoid", func(conf map[string]any) (forecast.Forecaster, error) {
		var c forecast.SinusoidConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		// Defaults apply per absent key; an explicit zero is kept.
		if _, ok := conf["amplitude"]; !ok {
			c.Amplitude = forecast.DefaultAmplitude
		}
		if _, ok := conf["phase"]; !ok {
			c.Phase = forecast.DefaultPhase
		}
		if _, ok := conf["frequency"]; !ok {
			c.Frequency = forecast.DefaultFrequency
		}
		if _, ok := conf["offset"]; !ok {
			c.Offset = forecast.DefaultOffset
		}
		return forecast.NewSinusoid(c)
	})
	Forecasters.MustRegister("history", func(conf map[string]any) (forecast.Forecaster, error) {
		var c forecast.HistoryConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return forecast.NewHistory(c)
	})
}
