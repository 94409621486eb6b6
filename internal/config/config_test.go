package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/intake?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "gpt-4o", cfg.Summary.Model)
	assert.Equal(t, 1000, cfg.Summary.MaxTokens)
	assert.Equal(t, "reset", cfg.Commands.Reset)
	assert.Equal(t, "stop", cfg.Commands.Stop)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LLM_TIMEOUT", "45")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")
	t.Setenv("RESET_COMMAND", "restart")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.DB.Path)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
	assert.Equal(t, "restart", cfg.Commands.Reset)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:     "5000",
			DB:       DBConfig{Driver: DriverSQLite, Path: "x.db"},
			LLM:      LLMConfig{Model: "m", MaxTokens: 1, Timeout: time.Second},
			Commands: CommandConfig{Reset: "reset", Stop: "stop"},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"empty port":       func(c *Config) { c.Port = "" },
		"unknown driver":   func(c *Config) { c.DB.Driver = "mysql" },
		"postgres no url":  func(c *Config) { c.DB.Driver = DriverPostgres },
		"sqlite no path":   func(c *Config) { c.DB.Path = "" },
		"zero tokens":      func(c *Config) { c.LLM.MaxTokens = 0 },
		"zero timeout":     func(c *Config) { c.LLM.Timeout = 0 },
		"same commands":    func(c *Config) { c.Commands.Stop = "RESET" },
		"blank stop word":  func(c *Config) { c.Commands.Stop = "  " },
		"empty model name": func(c *Config) { c.LLM.Model = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
