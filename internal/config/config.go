package config

import (
	"fmt"
	"os"

	"github.com/imkarma/rcvlf/internal/score"
	"github.com/imkarma/rcvlf/internal/task"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a planner workspace.
type Config struct {
	Version         int      `yaml:"version"`
	LogLevel        string   `yaml:"log_level,omitempty"`        // debug, info, warn, error
	ReadyConfidence *float64 `yaml:"ready_confidence,omitempty"` // threshold for "ready" frontier tasks
	Defaults        Defaults `yaml:"defaults"`
}

// Defaults are the score components used when a task is created without
// explicit values.
type Defaults struct {
	Confidence float64 `yaml:"confidence"`
	Value      int     `yaml:"value"`
	Learning   int     `yaml:"learning"`
}

// Params returns task parameters for name filled with the defaults.
func (d Defaults) Params(name, parentID string) task.NewTaskParams {
	return task.NewTaskParams{
		Name:       name,
		Confidence: d.Confidence,
		Value:      d.Value,
		Learning:   d.Learning,
		ParentID:   parentID,
	}
}

// MinConfidence returns the effective readiness threshold.
func (c *Config) MinConfidence() float64 {
	if c.ReadyConfidence != nil {
		return *c.ReadyConfidence
	}
	return score.DefaultReadyConfidence
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to the given path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a starter config.
func DefaultConfig() *Config {
	ready := score.DefaultReadyConfidence
	return &Config{
		Version:         1,
		LogLevel:        "info",
		ReadyConfidence: &ready,
		Defaults: Defaults{
			Confidence: 0.5,
			Value:      2,
			Learning:   2,
		},
	}
}

func (c *Config) validate() error {
	if c.Version < 1 {
		return fmt.Errorf("config: version must be at least 1, got %d", c.Version)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if r := c.MinConfidence(); !(r >= 0 && r <= 1) {
		return fmt.Errorf("config: ready_confidence must be between 0 and 1, got %v", r)
	}
	d := c.Defaults
	if err := task.ValidateComponents(d.Confidence, d.Value, d.Learning); err != nil {
		return fmt.Errorf("config: defaults: %w", err)
	}
	return nil
}
