// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the full application configuration. It can be loaded from a
// JSON file and is then overlaid by environment variables.
type Config struct {
	// Signals API used for webhook enrichment
	SignalsAPIURL string `json:"signals_api_url,omitempty"`
	SignalsAPIKey string `json:"signals_api_key,omitempty"`

	// LLM
	LLMProvider     string `json:"llm_provider,omitempty"` // gemini or anthropic
	GeminiAPIKey    string `json:"gemini_api_key,omitempty"`
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty"`
	Model           string `json:"model,omitempty"` // overrides the standard tier model

	// Sandbox used for landing pages; empty URL disables them
	SandboxAPIURL string        `json:"sandbox_api_url,omitempty"`
	SandboxAPIKey string        `json:"sandbox_api_key,omitempty"`
	PollInterval  time.Duration `json:"-"`
	PollTimeout   time.Duration `json:"-"`

	// Store
	StoreBackend  string `json:"store_backend,omitempty"` // memory, redis or postgres
	RedisAddress  string `json:"redis_address,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`
	DatabaseURL   string `json:"database_url,omitempty"`

	// Server
	Port      int    `json:"port,omitempty"`
	JWTSecret string `json:"jwt_secret,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
	Verbose  bool   `json:"verbose,omitempty"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() Config {
	return Config{
		LLMProvider:  "gemini",
		StoreBackend: "memory",
		Port:         8080,
		PollInterval: 3 * time.Second,
		PollTimeout:  180 * time.Second,
		LogLevel:     "info",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw struct {
		Config
		PollIntervalSeconds int `json:"poll_interval_seconds,omitempty"`
		PollTimeoutSeconds  int `json:"poll_timeout_seconds,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg := raw.Config
	cfg.PollInterval = time.Duration(raw.PollIntervalSeconds) * time.Second
	cfg.PollTimeout = time.Duration(raw.PollTimeoutSeconds) * time.Second
	return &cfg, nil
}

// Load reads the optional config file, overlays the environment and fills
// remaining fields from Defaults.
func Load(path string) (Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	merged := cfg.WithEnv(os.Getenv).MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}

// WithEnv returns a copy with every set environment variable applied on top
func (c Config) WithEnv(getenv func(string) string) Config {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.SignalsAPIURL, "SIGNALS_API_URL")
	set(&c.SignalsAPIKey, "SIGNALS_API_KEY")
	set(&c.LLMProvider, "LLM_PROVIDER")
	set(&c.GeminiAPIKey, "GEMINI_API_KEY")
	set(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	set(&c.Model, "LLM_MODEL")
	set(&c.SandboxAPIURL, "SANDBOX_API_URL")
	set(&c.SandboxAPIKey, "SANDBOX_API_KEY")
	set(&c.StoreBackend, "STORE_BACKEND")
	set(&c.RedisAddress, "REDIS_ADDRESS")
	set(&c.RedisPassword, "REDIS_PASSWORD")
	set(&c.DatabaseURL, "DATABASE_URL")
	set(&c.JWTSecret, "JWT_SECRET")
	set(&c.LogLevel, "LOG_LEVEL")

	if port, err := strconv.Atoi(getenv("PORT")); err == nil {
		c.Port = port
	}
	return c
}

// Validate checks that the configuration has valid values.
// API keys are checked where the clients are built.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "", "gemini", "anthropic":
	default:
		return fmt.Errorf("config error: unknown llm_provider %q", c.LLMProvider)
	}

	switch c.StoreBackend {
	case "", "memory":
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("config error: 'redis_address' is required for the redis store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres store")
		}
	default:
		return fmt.Errorf("config error: unknown store_backend %q", c.StoreBackend)
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.PollInterval < 0 || c.PollTimeout < 0 {
		return fmt.Errorf("config error: poll durations must be non-negative")
	}
	if c.PollInterval > 0 && c.PollTimeout > 0 && c.PollInterval > c.PollTimeout {
		return fmt.Errorf("config error: poll interval exceeds poll timeout")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c Config) MergeWithDefaults(defaults Config) Config {
	result := c

	if result.LLMProvider == "" {
		result.LLMProvider = defaults.LLMProvider
	}
	if result.StoreBackend == "" {
		result.StoreBackend = defaults.StoreBackend
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.SignalsAPIURL == "" {
		result.SignalsAPIURL = defaults.SignalsAPIURL
	}
	if result.SandboxAPIURL == "" {
		result.SandboxAPIURL = defaults.SandboxAPIURL
	}
	if result.RedisAddress == "" {
		result.RedisAddress = defaults.RedisAddress
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.PollInterval == 0 {
		result.PollInterval = defaults.PollInterval
	}
	if result.PollTimeout == 0 {
		result.PollTimeout = defaults.PollTimeout
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	return result
}

// LLMAPIKey returns the key for the configured provider
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}
