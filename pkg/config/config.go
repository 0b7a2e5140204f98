// Package config holds the runner configuration loaded from YAML and
// command-line overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full runner configuration.
type Config struct {
	// LLM configures the planning model.
	LLM LLMConfig `yaml:"llm"`

	// Browser configures the local tool provider.
	Browser BrowserConfig `yaml:"browser"`

	// Report configures output rendering.
	Report ReportConfig `yaml:"report"`

	// Loader configures test definition discovery.
	Loader LoaderConfig `yaml:"loader"`
}

// LLMConfig configures the planning model.
type LLMConfig struct {
	// APIKey for the OpenAI-compatible API. Falls back to the
	// OPENAI_API_KEY environment variable when empty.
	APIKey string `yaml:"api_key"`

	// BaseURL for OpenAI-compatible APIs. Empty uses the default.
	BaseURL string `yaml:"base_url"`

	// Model is the model name used for plan generation.
	Model string `yaml:"model"`
}

// BrowserConfig configures the Playwright provider.
type BrowserConfig struct {
	// Headless controls whether the browser runs without a window.
	Headless bool `yaml:"headless"`

	// StepTimeout bounds each individual tool invocation. Zero means
	// unbounded.
	StepTimeout Duration `yaml:"step_timeout"`

	// ViewportWidth and ViewportHeight set the page dimensions.
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	// OutputDir is where reports and screenshots are written.
	OutputDir string `yaml:"output_dir"`
}

// LoaderConfig configures test definition discovery.
type LoaderConfig struct {
	// Patterns are the glob patterns matched during directory scans.
	// Empty uses the loader defaults.
	Patterns []string `yaml:"patterns"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model: "gpt-4o",
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Report: ReportConfig{
			OutputDir: "webpilot-report",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir must not be empty")
	}
	if c.Browser.StepTimeout < 0 {
		return fmt.Errorf("browser.step_timeout must not be negative")
	}
	if c.Browser.ViewportWidth < 0 || c.Browser.ViewportHeight < 0 {
		return fmt.Errorf("browser viewport dimensions must not be negative")
	}
	return nil
}
