package ai

import (
	"context"
	"time"

	"ai-coach-chat/internal/domain/ports/adapter"
	"ai-coach-chat/internal/infra/metrics"
)

// Compile-time check
var _ adapter.TextGenerator = (*limitedAI)(nil)
var _ adapter.TextGenerator = (*observedAI)(nil)

type limitedAI struct {
	inner adapter.TextGenerator
	sem   chan struct{}
}

// NewLimitedAI bounds concurrent calls to inner. Waiting for a slot honours
// ctx, so a caller's timeout also covers time spent queued.
func NewLimitedAI(inner adapter.TextGenerator, maxConcurrent int) adapter.TextGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Generate(ctx, prompt)
}

type observedAI struct {
	inner    adapter.TextGenerator
	provider string
	model    string
	counter  adapter.TokenCounter
}

// NewObservedAI records latency and prompt size for every call.
func NewObservedAI(inner adapter.TextGenerator, provider, model string, counter adapter.TokenCounter) adapter.TextGenerator {
	return &observedAI{inner: inner, provider: provider, model: model, counter: counter}
}

func (o *observedAI) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := o.inner.Generate(ctx, prompt)
	tokens := 0
	if o.counter != nil {
		tokens = o.counter.CountTokens(prompt)
	}
	metrics.ObserveGeneration(o.provider, o.model, tokens, time.Since(start), err == nil)
	return text, err
}
