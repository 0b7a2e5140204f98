package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "webpilot-report", cfg.Report.OutputDir)
	assert.Zero(t, cfg.Browser.StepTimeout)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webpilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  model: gpt-4o-mini
  base_url: http://localhost:8080/v1
browser:
  headless: false
  step_timeout: 45s
report:
  output_dir: out
loader:
  patterns:
    - "*.steps"
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.BaseURL)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Browser.StepTimeout.Std())
	assert.Equal(t, "out", cfg.Report.OutputDir)
	assert.Equal(t, []string{"*.steps"}, cfg.Loader.Patterns)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: ["), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "empty model",
			mutate: func(c *Config) { c.LLM.Model = "" },
			errMsg: "llm.model",
		},
		{
			name:   "empty output dir",
			mutate: func(c *Config) { c.Report.OutputDir = "" },
			errMsg: "report.output_dir",
		},
		{
			name:   "negative step timeout",
			mutate: func(c *Config) { c.Browser.StepTimeout = Duration(-time.Second) },
			errMsg: "step_timeout",
		},
		{
			name:   "negative viewport",
			mutate: func(c *Config) { c.Browser.ViewportWidth = -1 },
			errMsg: "viewport",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
