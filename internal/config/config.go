// Package config handles hook engine configuration and hook definition files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/michael-freling/agent-hooks/internal/hooks"
)

// Config is the root configuration structure of the hook engine.
type Config struct {
	// Hooks selects the hook definition files.
	Hooks HooksConfig `yaml:"hooks" mapstructure:"hooks"`

	// Budget sets the session limits threshold hooks are measured against.
	Budget BudgetConfig `yaml:"budget" mapstructure:"budget"`

	// State configures where session state is persisted between invocations.
	State StateConfig `yaml:"state" mapstructure:"state"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// HooksConfig lists hook definition files.
type HooksConfig struct {
	// Files are read in order; later files append to each event's hooks.
	Files []string `yaml:"files" mapstructure:"files"`

	// Watch reloads the files when they change, in long-running modes.
	Watch bool `yaml:"watch" mapstructure:"watch"`
}

// BudgetConfig contains session limits.
type BudgetConfig struct {
	// Limit is the session budget in cost units. 0 disables budget hooks.
	Limit float64 `yaml:"limit" mapstructure:"limit"`

	// MaxTurns is the default turn limit for on_max_turns hooks without a threshold.
	MaxTurns int `yaml:"max_turns" mapstructure:"max_turns"`
}

// StateConfig contains session state settings.
type StateConfig struct {
	// Dir holds one state file per session.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file; stderr is used when empty.
	File string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Hooks: HooksConfig{
			Files: []string{filepath.Join(".claude", "hooks.yaml")},
		},
		State: StateConfig{
			Dir: defaultStateDir(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultStateDir() string {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, "agent-hooks")
	}
	return filepath.Join("~", ".local", "state", "agent-hooks")
}

// Limits returns the budget limits for a new session.
func (c *Config) Limits() hooks.Limits {
	return hooks.Limits{
		BudgetLimit: c.Budget.Limit,
		MaxTurns:    c.Budget.MaxTurns,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Budget.Limit < 0 {
		return fmt.Errorf("budget.limit must be zero or greater")
	}
	if c.Budget.MaxTurns < 0 {
		return fmt.Errorf("budget.max_turns must be zero or greater")
	}

	if strings.TrimSpace(c.State.Dir) == "" {
		return fmt.Errorf("state.dir is required")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console, json")
	}

	for _, file := range c.Hooks.Files {
		if _, err := FormatFromPath(file); err != nil {
			return fmt.Errorf("hooks.files: %w", err)
		}
	}

	return nil
}
