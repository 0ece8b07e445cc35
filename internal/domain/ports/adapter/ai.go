package adapter

import "context"

// TextGenerator is the port for single-prompt text generation.
type TextGenerator interface {
	// Generate returns the model's answer for prompt. Blank prompts, transport
	// failures and empty answers are errors.
	Generate(ctx context.Context, prompt string) (string, error)
}

// TokenCounter counts prompt tokens (best-effort when the exact tokenizer
// isn't available).
type TokenCounter interface {
	CountTokens(text string) int
}
