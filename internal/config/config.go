package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port            int           `yaml:"port"`
	APIKey          string        `yaml:"api_key"`
	RateLimit       int           `yaml:"rate_limit"`
	RateWindow      time.Duration `yaml:"rate_window"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	MaxChars        int           `yaml:"max_chars"`
	DefaultProvider string        `yaml:"default_provider"`
	PromptPath      string        `yaml:"prompt_path"`

	OpenAIAPIKey      string  `yaml:"openai_api_key"`
	OpenAIModel       string  `yaml:"openai_model"`
	OpenAIBaseURL     string  `yaml:"openai_base_url"`
	OpenAIMaxTokens   int     `yaml:"openai_max_tokens"`
	OpenAITemperature float64 `yaml:"openai_temperature"`

	ClaudeAPIKey string `yaml:"claude_api_key"`
	ClaudeModel  string `yaml:"claude_model"`

	DeepLAPIKey  string `yaml:"deepl_api_key"`
	DeepLBaseURL string `yaml:"deepl_base_url"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Providers accepted as default_provider.
var Providers = []string{"openai", "claude", "deepl", "mock"}

func defaults() Config {
	return Config{
		Port:              8090,
		RateLimit:         60,
		RateWindow:        time.Minute,
		RequestTimeout:    30 * time.Second,
		MaxUploadBytes:    10 << 20,
		MaxChars:          50000,
		DefaultProvider:   "openai",
		OpenAIModel:       "gpt-4o-mini",
		OpenAIMaxTokens:   4000,
		OpenAITemperature: 0.3,
		ClaudeModel:       "claude-sonnet-4-5-20250929",
		DeepLBaseURL:      "https://api-free.deepl.com",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load loads configuration from a YAML file (if path is non-empty),
// then applies environment variable overrides. An empty path returns defaults + env overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("config: rate_limit must be positive, got %d", c.RateLimit)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	for _, p := range Providers {
		if c.DefaultProvider == p {
			return nil
		}
	}
	return fmt.Errorf("config: unknown default_provider %q", c.DefaultProvider)
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if err := envInt("DOCTRAN_PORT", &cfg.Port); err != nil {
		return err
	}
	str("DOCTRAN_API_KEY", &cfg.APIKey)
	if err := envInt("DOCTRAN_RATE_LIMIT", &cfg.RateLimit); err != nil {
		return err
	}
	if err := envDuration("DOCTRAN_RATE_WINDOW", &cfg.RateWindow); err != nil {
		return err
	}
	if err := envDuration("DOCTRAN_REQUEST_TIMEOUT", &cfg.RequestTimeout); err != nil {
		return err
	}
	if v := os.Getenv("DOCTRAN_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: invalid DOCTRAN_MAX_UPLOAD_BYTES %q: %w", v, err)
		}
		cfg.MaxUploadBytes = n
	}
	if err := envInt("DOCTRAN_MAX_CHARS", &cfg.MaxChars); err != nil {
		return err
	}
	str("DOCTRAN_DEFAULT_PROVIDER", &cfg.DefaultProvider)
	str("DOCTRAN_PROMPT_PATH", &cfg.PromptPath)
	str("DOCTRAN_LOG_LEVEL", &cfg.LogLevel)
	str("DOCTRAN_LOG_FORMAT", &cfg.LogFormat)

	str("OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	str("OPENAI_MODEL", &cfg.OpenAIModel)
	str("OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	if err := envInt("OPENAI_MAX_TOKENS", &cfg.OpenAIMaxTokens); err != nil {
		return err
	}
	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: invalid OPENAI_TEMPERATURE %q: %w", v, err)
		}
		cfg.OpenAITemperature = f
	}

	str("ANTHROPIC_API_KEY", &cfg.ClaudeAPIKey)
	str("DOCTRAN_CLAUDE_MODEL", &cfg.ClaudeModel)

	str("DEEPL_API_KEY", &cfg.DeepLAPIKey)
	str("DEEPL_BASE_URL", &cfg.DeepLBaseURL)
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
