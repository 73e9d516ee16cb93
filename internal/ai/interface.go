package ai

import "context"

// Generator produces a completion for a prompt. Implementations may be swapped
// (Gemini in production, canned output in tests).
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
