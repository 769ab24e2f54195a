// Package config provides configuration loading and validation for the CLI.
// Values come from the environment (with optional .env support) and may be
// seeded from a JSON file; environment variables win over file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the pipeline needs to run.
type Config struct {
	// Connections
	DatabaseURL  string `json:"database_url,omitempty"`
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	TavilyAPIKey string `json:"tavily_api_key,omitempty"`

	// Rate limiting and retries for model calls
	LLMRatePerSecond float64       `json:"llm_rate_per_second,omitempty"`
	MaxRetries       int           `json:"max_retries,omitempty"`
	RetryBaseDelay   time.Duration `json:"-"`

	// Behavior
	UseBrowser bool   `json:"use_browser,omitempty"` // headless browser fallback for SPA sites
	LogLevel   string `json:"log_level,omitempty"`
	LogPretty  bool   `json:"log_pretty,omitempty"`
}

// Defaults returns a config with the built-in defaults applied.
func Defaults() *Config {
	return &Config{
		LLMRatePerSecond: 1.0,
		MaxRetries:       3,
		RetryBaseDelay:   time.Second,
		LogLevel:         "info",
	}
}

// Load builds the effective configuration: defaults, then the optional JSON
// file at path, then environment variables. A .env file in the working
// directory is loaded into the environment first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.TavilyAPIKey, "TAVILY_API_KEY")
	setString(&c.LogLevel, "LOG_LEVEL")
	setFloat(&c.LLMRatePerSecond, "LLM_RATE_PER_SECOND")
	setInt(&c.MaxRetries, "LLM_MAX_RETRIES")
	setDuration(&c.RetryBaseDelay, "LLM_RETRY_BASE_DELAY")
	setBool(&c.UseBrowser, "USE_BROWSER")
	setBool(&c.LogPretty, "LOG_PRETTY")
}

// Validate checks that the configuration has usable values. Connection
// strings and API keys are checked by the commands that need them, so a
// missing key only fails the command that would use it.
func (c *Config) Validate() error {
	if c.LLMRatePerSecond <= 0 {
		return fmt.Errorf("config error: 'llm_rate_per_second' must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config error: 'max_retries' must be non-negative")
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("config error: retry base delay must be positive")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown log level %q", c.LogLevel)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
