package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridloop/recap/core/factory"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleYAML = `
t_window: 1440
dt: 10
optimization:
  type: lti
  conf:
    matrices: model.json
reward:
  price:
    type: sinusoid
    conf:
      amplitude: 5
run:
  steps: 12
  start: "2026-01-02T00:00:00Z"
  x_init: [2]
sinks:
  csv: out.csv
`

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "conf.yaml", sampleYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1440.0, cfg.TWindow)
	assert.Equal(t, "lti", cfg.Optimization.Type)
	assert.Equal(t, "model.json", cfg.Optimization.Conf["matrices"])
	assert.Equal(t, 12, cfg.Run.Steps)
	assert.Equal(t, []float64{2}, cfg.Run.XInit)
	assert.Equal(t, "out.csv", cfg.Sinks.CSV)
	assert.Equal(t, "9090", cfg.Sinks.PrometheusPort)

	start, err := cfg.Run.StartTime()
	require.NoError(t, err)
	assert.Equal(t, 2026, start.Year())
}

func TestLoadInjectsWindow(t *testing.T) {
	path := writeFile(t, "conf.yaml", sampleYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1440.0, cfg.Optimization.Conf["t_window"])
	assert.Equal(t, 10.0, cfg.Optimization.Conf["dt"])
	assert.Equal(t, 1440.0, cfg.Reward["price"].Conf["t_window"])
	assert.Equal(t, 5, cfg.Reward["price"].Conf["amplitude"])
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "conf.json", `{
		"t_window": 60,
		"dt": 15,
		"optimization": {"type": "fixed"},
		"run": {"steps": 1, "x_init": [0]}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fixed", cfg.Optimization.Type)
	assert.Equal(t, 4, cfg.Steps())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "conf.yaml", sampleYAML)
	t.Setenv("RECAP_RUN__STEPS", "99")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.Run.Steps)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "conf.toml", "x = 1")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			TWindow:      60,
			Dt:           15,
			Optimization: factory.ModuleConfig{Type: "fixed"},
			Run:          RunConfig{Steps: 1, XInit: []float64{0}},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-positive dt", func(c *Config) { c.Dt = 0 }},
		{"window not divisible", func(c *Config) { c.Dt = 7 }},
		{"missing optimizer type", func(c *Config) { c.Optimization.Type = "" }},
		{"missing reward type", func(c *Config) {
			c.Reward = map[string]factory.ModuleConfig{"price": {}}
		}},
		{"negative steps", func(c *Config) { c.Run.Steps = -1 }},
		{"empty x_init", func(c *Config) { c.Run.XInit = nil }},
		{"bad start", func(c *Config) { c.Run.Start = "yesterday" }},
		{"mqtt without broker", func(c *Config) { c.Sinks.MQTTEnabled = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())
}
