package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/antique-korea/appraiser/internal/analysis"
	"github.com/antique-korea/appraiser/internal/clock"
	"github.com/antique-korea/appraiser/internal/config"
	"github.com/antique-korea/appraiser/internal/gemini"
	"github.com/antique-korea/appraiser/internal/history"
	"github.com/antique-korea/appraiser/internal/ollama"
	"github.com/antique-korea/appraiser/internal/openai"
	"github.com/antique-korea/appraiser/internal/providers"
	"github.com/antique-korea/appraiser/internal/quota"
	"github.com/antique-korea/appraiser/internal/session"
	"github.com/antique-korea/appraiser/internal/storage"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appraiser",
		Short: "AI appraisal tool for antiques, old books and seals",
		Long: `Appraiser analyzes photographs of antique objects with vision-capable LLMs
and produces a structured appraisal: name, era, estimated value, description
and a confidence score. Appraisals are kept in a local history and capped by
a daily quota.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAppraiseCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

// newManager wires the session core from environment configuration.
func newManager() (*session.Manager, *config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewFileStore(cfg.DataFilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open data store: %w", err)
	}

	clk := clock.System{}
	manager := session.NewManager(
		analysis.NewClient(provider, cfg.Model, cfg.Temperature),
		quota.NewTracker(store, clk, cfg.DailyLimit),
		history.New(store),
		store,
		clk,
	)
	return manager, cfg, nil
}

func newProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.New(cfg.GeminiAPIKey), nil
	case "openai":
		return openai.New(cfg.OpenAIAPIKey), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
