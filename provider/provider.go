package provider

import (
	"errors"

	"github.com/Go-Pr0/stock-analyze-backend/config"
	gemini_provider "github.com/Go-Pr0/stock-analyze-backend/provider/gemini"

	"github.com/Go-Pr0/stock-analyze-backend/internal/research"
)

// NewProvider creates the completion provider selected by configuration.
func NewProvider(cfg config.LLMConfig) (research.CompletionProvider, error) {
	switch cfg.Provider {
	case "gemini", "":
		if cfg.APIKey == "" {
			return nil, errors.New("llm.api_key not set")
		}
		return gemini_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, errors.New("unsupported LLM provider: " + cfg.Provider)
	}
}
