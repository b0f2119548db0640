package plugins

import (
	"github.com/gridloop/recap/core/factory"
	"github.com/gridloop/recap/core/forecast"
	"github.com/gridloop/recap/core/optimize"
)

// Optimizers and Forecasters are the process-wide registries the service
// resolves configuration type tags against. Built-in modules register
// themselves in init; external modules can add their own before the service
// is built.
var (
	Optimizers  = factory.NewRegistry[optimize.Optimizer]()
	Forecasters = factory.NewRegistry[forecast.Forecaster]()
)
