package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gridloop/recap/core/factory"
	"github.com/gridloop/recap/core/horizon"
	"github.com/gridloop/recap/infra/metrics"
	"github.com/gridloop/recap/infra/mqtt"
)

// Config is the declarative composition input: which optimizer and which
// forecasters to build, the loop parameters, and where results go.
type Config struct {
	// TWindow and Dt (minutes) define the shared horizon; they are injected
	// into the optimizer and every forecaster configuration.
	TWindow float64 `json:"t_window"`
	Dt      float64 `json:"dt"`

	Optimization factory.ModuleConfig            `json:"optimization"`
	Reward       map[string]factory.ModuleConfig `json:"reward"`

	Run   RunConfig   `json:"run"`
	Sinks SinksConfig `json:"sinks"`
}

// RunConfig drives the dispatch loop itself.
type RunConfig struct {
	// Steps is the number of dispatch steps to execute. Zero means run until
	// a forecaster is exhausted.
	Steps int `json:"steps"`
	// Start is the RFC3339 timestamp of the initial state; empty means now.
	Start string `json:"start"`
	// XInit is the initial state vector in the optimizer's state order.
	XInit []float64 `json:"x_init"`
}

// StartTime parses the configured start timestamp.
func (r RunConfig) StartTime() (time.Time, error) {
	if r.Start == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, r.Start)
}

// SinksConfig wires the optional result and metric outputs.
type SinksConfig struct {
	// CSV and InitialCSV are output paths for the dispatch history; empty
	// disables the writer.
	CSV        string `json:"csv"`
	InitialCSV string `json:"initial_csv"`
	JSON       string `json:"json"`

	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`

	InfluxEnabled bool                 `json:"influx_enabled"`
	Influx        metrics.InfluxConfig `json:"influx"`

	MQTTEnabled bool        `json:"mqtt_enabled"`
	MQTT        mqtt.Config `json:"mqtt"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Sinks.PrometheusPort == "" {
		c.Sinks.PrometheusPort = "9090"
	}
	if c.Sinks.MQTT.ClientID == "" {
		c.Sinks.MQTT.ClientID = "recap"
	}
}

// Validate checks the composition makes sense before anything is built.
func (c *Config) Validate() error {
	w := horizon.Window{TWindow: c.TWindow, Dt: c.Dt}
	if err := w.Validate(); err != nil {
		return err
	}
	if c.Optimization.Type == "" {
		return fmt.Errorf("config: optimization.type is required")
	}
	for name, mc := range c.Reward {
		if name == "" {
			return fmt.Errorf("config: reward source names must be non-empty")
		}
		if mc.Type == "" {
			return fmt.Errorf("config: reward %q: type is required", name)
		}
	}
	if c.Run.Steps < 0 {
		return fmt.Errorf("config: run.steps must not be negative")
	}
	if len(c.Run.XInit) == 0 {
		return fmt.Errorf("config: run.x_init is required")
	}
	if _, err := c.Run.StartTime(); err != nil {
		return fmt.Errorf("config: run.start: %w", err)
	}
	if c.Sinks.MQTTEnabled && (c.Sinks.MQTT.Broker == "" || c.Sinks.MQTT.Topic == "") {
		return fmt.Errorf("config: mqtt sink needs broker and topic")
	}
	return nil
}

// Steps returns the number of horizon intervals covered by the window.
func (c *Config) Steps() int {
	return horizon.Window{TWindow: c.TWindow, Dt: c.Dt}.Steps()
}

// InjectWindow copies t_window and dt into the optimizer and every forecaster
// configuration, so module configs never repeat the shared horizon.
func (c *Config) InjectWindow() {
	inject := func(mc *factory.ModuleConfig) {
		if mc.Conf == nil {
			mc.Conf = map[string]any{}
		}
		mc.Conf["t_window"] = c.TWindow
		mc.Conf["dt"] = c.Dt
	}
	inject(&c.Optimization)
	for name, mc := range c.Reward {
		inject(&mc)
		c.Reward[name] = mc
	}
}

// Load reads the configuration file (yaml or json by extension) with
// RECAP_-prefixed environment overrides, applies defaults and validates.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. RECAP_RUN__STEPS=10.
	if err := k.Load(env.Provider("RECAP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "recap_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.InjectWindow()
	return &cfg, nil
}
