// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ai-coach-chat/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*MultiAIAdapter)(nil)

// MultiAIAdapter tries providers in order and returns the first answer.
// With a single provider it is a pass-through.
type MultiAIAdapter struct {
	order      []string
	byProvider map[string]adapter.TextGenerator
	log        *zerolog.Logger
}

// NewMultiAIAdapter keeps only the providers in order that have an adapter.
func NewMultiAIAdapter(order []string, byProvider map[string]adapter.TextGenerator, log *zerolog.Logger) (*MultiAIAdapter, error) {
	m := &MultiAIAdapter{byProvider: map[string]adapter.TextGenerator{}, log: log}
	for _, p := range order {
		p = strings.ToLower(strings.TrimSpace(p))
		a := byProvider[p]
		if a == nil {
			continue
		}
		if _, dup := m.byProvider[p]; dup {
			continue
		}
		m.order = append(m.order, p)
		m.byProvider[p] = a
	}
	if len(m.order) == 0 {
		return nil, errors.New("ai: no text generation provider configured")
	}
	return m, nil
}

// Providers returns the effective order.
func (m *MultiAIAdapter) Providers() []string { return append([]string(nil), m.order...) }

func (m *MultiAIAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	if err := checkPrompt(prompt); err != nil {
		return "", err
	}
	var errs []error
	for i, p := range m.order {
		text, err := m.byProvider[p].Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		// The caller's deadline applies to the whole chain.
		if ctx.Err() != nil {
			return "", err
		}
		errs = append(errs, fmt.Errorf("%s: %w", p, err))
		if i < len(m.order)-1 && m.log != nil {
			m.log.Warn().Err(err).Str("provider", p).Str("next", m.order[i+1]).Msg("ai provider failed, falling back")
		}
	}
	if len(errs) == 1 {
		return "", errors.Unwrap(errs[0])
	}
	return "", errors.Join(errs...)
}
