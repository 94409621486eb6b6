// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported durable store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	LogLevel slog.Level

	DB       DBConfig
	LLM      LLMConfig
	Summary  SummaryConfig
	Commands CommandConfig
}

// DBConfig selects and locates the durable profile store.
type DBConfig struct {
	Driver        string
	URL           string // Postgres DSN
	Path          string // SQLite file
	NotifyChannel string // Postgres NOTIFY channel, empty disables
}

// LLMConfig configures the conversational completion model.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// SummaryConfig configures the history summary model.
type SummaryConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// CommandConfig holds the control words recognised at every stage.
type CommandConfig struct {
	Reset string
	Stop  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "5000"),
		LogLevel: getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		DB: DBConfig{
			Driver:        strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			URL:           getEnv("DATABASE_URL", ""),
			Path:          getEnv("DB_PATH", "./data/intake.db"),
			NotifyChannel: getEnv("NOTIFY_CHANNEL", "profile_updates"),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("GROQ_API_KEY", ""),
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 800),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Summary: SummaryConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("SUMMARY_BASE_URL", ""),
			Model:       getEnv("SUMMARY_MODEL", "gpt-4o"),
			Temperature: 0.3,
			MaxTokens:   1000,
			Timeout:     getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Commands: CommandConfig{
			Reset: getEnv("RESET_COMMAND", "reset"),
			Stop:  getEnv("STOP_COMMAND", "stop"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.  Missing
// API keys are not errors: the assistant answers with a "not configured"
// message instead.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.URL == "" {
			return fmt.Errorf("DATABASE_URL must be set when DB_DRIVER=postgres")
		}
	case DriverSQLite:
		if c.DB.Path == "" {
			return fmt.Errorf("DB_PATH cannot be empty when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DB.Driver)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL cannot be empty")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be > 0")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(c.Commands.Reset) == "" || strings.TrimSpace(c.Commands.Stop) == "" {
		return fmt.Errorf("RESET_COMMAND and STOP_COMMAND cannot be empty")
	}
	if strings.EqualFold(strings.TrimSpace(c.Commands.Reset), strings.TrimSpace(c.Commands.Stop)) {
		return fmt.Errorf("RESET_COMMAND and STOP_COMMAND must differ")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float32) float32 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
