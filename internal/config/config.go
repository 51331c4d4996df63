package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Config is the environment configuration for the appraiser. The only
// secret is the provider credential; everything else has a default.
type Config struct {
	Provider    string  `env:"APPRAISER_PROVIDER" envDefault:"gemini"`
	Model       string  `env:"APPRAISER_MODEL" envDefault:"gemini-1.5-flash"`
	Temperature float64 `env:"APPRAISER_TEMPERATURE" envDefault:"0.4"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OllamaURL    string `env:"OLLAMA_URL"`

	DailyLimit int `env:"DAILY_APPRAISAL_LIMIT" envDefault:"3"`

	DataFilePath string `env:"APPRAISER_DATA_FILE" envDefault:"data/appraiser.json"`
}

// New parses the configuration from the environment.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
