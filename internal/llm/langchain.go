package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// LangChain generates replies through langchaingo's OpenAI-compatible client,
// which also works against self-hosted servers that speak the same API.
type LangChain struct {
	client  *openai.LLM
	model   string
	timeout time.Duration
}

func NewLangChain(cfg Config) (*LangChain, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("langchain: api key is required")
	}
	cfg = cfg.withDefaults()

	opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create langchain openai client: %w", err)
	}

	return &LangChain{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

func (l *LangChain) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, m.Content))
		case RoleAssistant:
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeAI, m.Content))
		default:
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, m.Content))
		}
	}

	resp, err := l.client.GenerateContent(ctx, messages,
		llms.WithTemperature(req.Temperature),
		llms.WithTopP(req.TopP),
		llms.WithPresencePenalty(req.PresencePenalty),
		llms.WithFrequencyPenalty(req.FrequencyPenalty),
	)
	if err != nil {
		slog.Error("langchain error: generate content failed", "model", l.model, "error", err)
		return "", mapError("langchain", err)
	}

	if len(resp.Choices) == 0 {
		return "", NewProviderError(ErrCodeEmptyResponse, "langchain: response has no choices", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}
