package ai

import (
	"errors"
	"strings"
)

var (
	ErrEmptyPrompt   = errors.New("프롬프트가 비어 있습니다.")
	ErrEmptyResponse = errors.New("AI 응답이 비어 있습니다.")
)

// CleanText trims the reply and unwraps a Markdown code fence around it.
func CleanText(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	firstNewLine := strings.IndexByte(trimmed, '\n')
	lastFence := strings.LastIndex(trimmed, "```")
	if firstNewLine > 0 && lastFence > firstNewLine {
		return strings.TrimSpace(trimmed[firstNewLine+1 : lastFence])
	}
	return trimmed
}

func checkPrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}
