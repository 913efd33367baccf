// Package config loads and validates the coordinator configuration.
//
// Configuration is validation-first: Load rejects an invalid file before any
// component is constructed, so a misconfigured guard can never start
// counting. State (counters, cursors) never lives here.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validation errors.
var (
	ErrInvalidThreshold = errors.New("guard.max_consecutive_calls must be positive")
	ErrMissingTool      = errors.New("guard.monitored_tool is required")
	ErrMissingCaller    = errors.New("guard.monitored_caller is required")
	ErrMissingResetter  = errors.New("guard.expected_reset_agent is required")
	ErrMissingDocsRoot  = errors.New("sequencer.docs_root is required")
)

// GuardConfig configures the delegation loop guard.
type GuardConfig struct {
	MaxConsecutiveCalls int    `yaml:"max_consecutive_calls"`
	MonitoredTool       string `yaml:"monitored_tool"`
	MonitoredCaller     string `yaml:"monitored_caller"`
	ExpectedResetAgent  string `yaml:"expected_reset_agent"`
}

// SequencerConfig configures the context sequencer.
type SequencerConfig struct {
	// DocsRoot is the directory holding one document subdirectory per
	// agent role.
	DocsRoot string `yaml:"docs_root"`
}

// TelemetryConfig configures the append-only telemetry table.
type TelemetryConfig struct {
	// DBPath is the SQLite database file. Empty disables telemetry.
	DBPath string `yaml:"db_path"`
}

// LoggingConfig configures the diagnostic log sink.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Config is the full coordinator configuration.
type Config struct {
	Guard     GuardConfig     `yaml:"guard"`
	Sequencer SequencerConfig `yaml:"sequencer"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Default returns the built-in defaults. Guard names have no sensible
// defaults and must come from the file.
func Default() Config {
	return Config{
		Guard: GuardConfig{
			MaxConsecutiveCalls: 2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads, decodes, and validates the configuration file at path.
// Defaults apply to fields the file omits. Unknown fields are rejected to
// catch typos early.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for construction-time errors.
func (c *Config) Validate() error {
	if c.Guard.MaxConsecutiveCalls <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreshold, c.Guard.MaxConsecutiveCalls)
	}
	if c.Guard.MonitoredTool == "" {
		return ErrMissingTool
	}
	if c.Guard.MonitoredCaller == "" {
		return ErrMissingCaller
	}
	if c.Guard.ExpectedResetAgent == "" {
		return ErrMissingResetter
	}
	if c.Sequencer.DocsRoot == "" {
		return ErrMissingDocsRoot
	}
	return nil
}
