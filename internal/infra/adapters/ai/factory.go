package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"ai-coach-chat/internal/config"
	"ai-coach-chat/internal/domain/ports/adapter"
)

type modelled interface {
	adapter.TextGenerator
	Model() string
}

// NewFromConfig builds the configured provider chain: the primary provider,
// then the other one when fallback is on and it has credentials. Every
// provider is observed; the whole chain shares one concurrency limit.
func NewFromConfig(ctx context.Context, cfg config.AIConfig, counter adapter.TokenCounter, log *zerolog.Logger) (adapter.TextGenerator, error) {
	byProvider := map[string]adapter.TextGenerator{}
	add := func(name string, g modelled) {
		byProvider[name] = NewObservedAI(g, name, g.Model(), counter)
	}

	if cfg.GeminiKey != "" {
		g, err := NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, cfg.GeminiModel, cfg.MaxOutputTokens)
		if err != nil {
			return nil, fmt.Errorf("gemini adapter: %w", err)
		}
		add("gemini", g)
	}
	if cfg.OpenAIKey != "" {
		o, err := NewOpenAIAdapter(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.MaxOutputTokens)
		if err != nil {
			return nil, fmt.Errorf("openai adapter: %w", err)
		}
		add("openai", o)
	}
	if cfg.Provider == "noop" {
		add("noop", NewNoopAIAdapter())
	}

	order := []string{cfg.Provider}
	if cfg.Fallback {
		switch cfg.Provider {
		case "gemini":
			order = append(order, "openai")
		case "openai":
			order = append(order, "gemini")
		}
	}
	multi, err := NewMultiAIAdapter(order, byProvider, log)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Info().Strs("providers", multi.Providers()).Int("concurrent_limit", cfg.ConcurrentLimit).Msg("text generation ready")
	}
	return NewLimitedAI(multi, cfg.ConcurrentLimit), nil
}
