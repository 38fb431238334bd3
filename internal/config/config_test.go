package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points every config search path at an empty temp directory.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Chdir(dir)
	return dir
}

func TestDefaultConfig(t *testing.T) {
	dir := isolateEnv(t)

	cfg := DefaultConfig()
	assert.Equal(t, []string{filepath.Join(".claude", "hooks.yaml")}, cfg.Hooks.Files)
	assert.Equal(t, filepath.Join(dir, "state", "agent-hooks"), cfg.State.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		errContains string
	}{
		{
			name:   "default config is valid",
			modify: func(*Config) {},
		},
		{
			name:        "negative budget limit",
			modify:      func(c *Config) { c.Budget.Limit = -1 },
			errContains: "budget.limit",
		},
		{
			name:        "negative max turns",
			modify:      func(c *Config) { c.Budget.MaxTurns = -3 },
			errContains: "budget.max_turns",
		},
		{
			name:        "empty state dir",
			modify:      func(c *Config) { c.State.Dir = " " },
			errContains: "state.dir",
		},
		{
			name:        "unknown log level",
			modify:      func(c *Config) { c.Logging.Level = "trace" },
			errContains: "logging.level",
		},
		{
			name:        "unknown log format",
			modify:      func(c *Config) { c.Logging.Format = "xml" },
			errContains: "logging.format",
		},
		{
			name:        "unsupported hook file extension",
			modify:      func(c *Config) { c.Hooks.Files = []string{"hooks.ini"} },
			errContains: "hooks.files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestConfig_Limits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget.Limit = 5
	cfg.Budget.MaxTurns = 20

	limits := cfg.Limits()
	assert.Equal(t, 5.0, limits.BudgetLimit)
	assert.Equal(t, 20, limits.MaxTurns)
}

func TestLoader_Load(t *testing.T) {
	t.Run("uses defaults when no file exists", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := LoadDefault()
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("reads config from the working directory", func(t *testing.T) {
		dir := isolateEnv(t)
		content := `
hooks:
  files:
    - hooks/safety.yaml
    - hooks/budget.toml
  watch: true
budget:
  limit: 2.5
  max_turns: 30
logging:
  level: debug
  format: json
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "agent-hooks.yaml"), []byte(content), 0o644))

		loader := NewLoader()
		cfg, err := loader.Load()
		require.NoError(t, err)

		assert.Equal(t, []string{"hooks/safety.yaml", "hooks/budget.toml"}, cfg.Hooks.Files)
		assert.True(t, cfg.Hooks.Watch)
		assert.Equal(t, 2.5, cfg.Budget.Limit)
		assert.Equal(t, 30, cfg.Budget.MaxTurns)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.Contains(t, loader.ConfigFileUsed(), "agent-hooks.yaml")
	})

	t.Run("environment overrides file", func(t *testing.T) {
		dir := isolateEnv(t)
		path := filepath.Join(dir, "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("budget:\n  limit: 1\n"), 0o644))
		t.Setenv("AGENT_HOOKS_BUDGET_LIMIT", "4.5")

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 4.5, cfg.Budget.Limit)
	})

	t.Run("set overrides environment", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("AGENT_HOOKS_BUDGET_MAX_TURNS", "10")

		loader := NewLoader()
		loader.Set("budget.max_turns", 12)
		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, 12, cfg.Budget.MaxTurns)
	})

	t.Run("expands tilde in paths", func(t *testing.T) {
		dir := isolateEnv(t)
		path := filepath.Join(dir, "custom.yaml")
		content := "state:\n  dir: ~/sessions\nhooks:\n  files: [\"~/hooks.json\"]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "sessions"), cfg.State.Dir)
		assert.Equal(t, []string{filepath.Join(dir, "hooks.json")}, cfg.Hooks.Files)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		dir := isolateEnv(t)

		_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config file")
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		dir := isolateEnv(t)
		path := filepath.Join(dir, "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("budget:\n  limit: -2\n"), 0o644))

		_, err := LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation failed")
	})
}
