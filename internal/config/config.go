package config

import (
	"fmt"
	"log/slog"
	"time"

	"calore-bot/internal/llm"
	"calore-bot/internal/nutrition"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8001"`

	LLMProvider   string        `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
	Model         string        `env:"MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout    time.Duration `env:"LLM_TIMEOUT" envDefault:"50s"`

	USDAAPIKey   string        `env:"USDA_API_KEY"`
	USDABaseURL  string        `env:"USDA_BASE_URL" envDefault:"https://api.nal.usda.gov/fdc"`
	USDATimeout  time.Duration `env:"USDA_TIMEOUT" envDefault:"15s"`
	USDAPageSize int           `env:"USDA_PAGE_SIZE" envDefault:"1"`

	DefaultLanguage string `env:"DEFAULT_LANGUAGE" envDefault:"Thai"`
	FoodTermsPath   string `env:"FOOD_TERMS_PATH"`
	MaxSessions     int    `env:"MAX_SESSIONS" envDefault:"1000"`

	LogDir             string   `env:"LOG_DIR"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads the configuration from the process environment, plus a .env
// file in the working directory when one exists. Missing API keys
// are not an error; the affected services run degraded.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using process environment", "error", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.USDAPageSize <= 0 {
		return nil, fmt.Errorf("USDA_PAGE_SIZE must be positive, got %d", cfg.USDAPageSize)
	}
	if cfg.MaxSessions <= 0 {
		return nil, fmt.Errorf("MAX_SESSIONS must be positive, got %d", cfg.MaxSessions)
	}

	if cfg.USDAAPIKey == "" {
		slog.Warn("USDA_API_KEY is not set, nutrition lookups are disabled")
	}

	return &cfg, nil
}

func (c *Config) LLM() llm.Config {
	return llm.Config{
		APIKey:  c.OpenAIAPIKey,
		Model:   c.Model,
		BaseURL: c.OpenAIBaseURL,
		Timeout: c.LLMTimeout,
	}
}

func (c *Config) FDC() nutrition.FDCConfig {
	return nutrition.FDCConfig{
		BaseURL:  c.USDABaseURL,
		APIKey:   c.USDAAPIKey,
		Timeout:  c.USDATimeout,
		PageSize: c.USDAPageSize,
	}
}
