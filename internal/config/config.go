// Package config loads citysense settings from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all citysense configuration.
type Config struct {
	// LLM layout generation
	LLM LLMConfig `yaml:"llm"`

	// SVG output preferences
	SVG SVGConfig `yaml:"svg"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the Gemini layout generator.
type LLMConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SVGConfig holds default options for SVG encoding.
type SVGConfig struct {
	NoLegend bool `yaml:"no_legend"`
	NoShadow bool `yaml:"no_shadow"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 60,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the standard config location under the user's home
// directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".citysense", "config.yaml")
	}
	return filepath.Join(home, ".citysense", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file is not an
// error: defaults plus environment overrides are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold an API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides, checked in
// ascending priority order so later assignments win.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("CITYSENSE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("CITYSENSE_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if level := os.Getenv("CITYSENSE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Timeout returns the LLM request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// Debounce returns the watch debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	if c.Watch.DebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// Validate checks the settings generation commands need.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("API key not configured (set GEMINI_API_KEY or CITYSENSE_API_KEY, or add llm.api_key to %s)", DefaultPath())
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("model not configured (set CITYSENSE_MODEL or add llm.model to %s)", DefaultPath())
	}
	return nil
}
