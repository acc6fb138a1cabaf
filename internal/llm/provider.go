package llm

import (
	"fmt"
	"log/slog"
)

const (
	ProviderOpenAI    = "openai"
	ProviderLangChain = "langchain"
)

// NewGenerator picks the generator once at startup. A missing API key selects
// Degraded so the chatbot keeps answering; an unknown provider name is an
// error.
func NewGenerator(provider string, cfg Config) (Generator, error) {
	if cfg.APIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, using degraded generator")
		return Degraded{}, nil
	}

	switch provider {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg)
	case ProviderLangChain:
		return NewLangChain(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider '%s', must be '%s' or '%s'", provider, ProviderOpenAI, ProviderLangChain)
	}
}
