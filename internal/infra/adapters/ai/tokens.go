package ai

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"ai-coach-chat/internal/domain/ports/adapter"
)

var _ adapter.TokenCounter = (*TiktokenCounter)(nil)

// TiktokenCounter counts cl100k_base tokens. Without an encoder it falls back
// to the rune count, which over-estimates for Hangul and so stays on the
// safe side of a budget.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the encoding; the error is informational and the
// returned counter is always usable.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return &TiktokenCounter{}, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) CountTokens(text string) int {
	if c == nil || c.enc == nil {
		return utf8.RuneCountInString(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
