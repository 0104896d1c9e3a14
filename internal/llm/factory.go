package llm

import (
	"fmt"

	"dreamweaver-ai/internal/config"
)

// NewGenerator returns the text generator selected by cfg.LLMProvider.
func NewGenerator(cfg *config.Config, opts Options) (Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI, "":
		return NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, opts), nil
	case config.ProviderOllama:
		return NewOllamaClient(cfg.LLMBaseURL, cfg.LLMModelName, opts)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
