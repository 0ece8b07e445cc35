package ai

import (
	"context"
	"strconv"
	"time"
	"unicode/utf8"

	"ai-coach-chat/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*NoopAIAdapter)(nil)

// NoopAIAdapter answers locally for dev runs without provider credentials.
type NoopAIAdapter struct {
	Delay time.Duration
}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{Delay: 100 * time.Millisecond}
}

func (a *NoopAIAdapter) Model() string { return "noop" }

func (a *NoopAIAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	if err := checkPrompt(prompt); err != nil {
		return "", err
	}
	select {
	case <-time.After(a.Delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "[dev] 질문을 잘 받았어요. 프롬프트 길이: " + strconv.Itoa(utf8.RuneCountInString(prompt)) + "자", nil
}
