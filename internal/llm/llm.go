// Package llm provides the text generation collaborators used by every
// copilot stage.
package llm

import (
	"context"
	"errors"
)

var (
	ErrGenerationFailed = errors.New("LLM_GENERATION_FAILED")
	ErrEmptyCompletion  = errors.New("LLM_EMPTY_COMPLETION")
)

// LanguageModel turns a prompt into a completion. Implementations are
// stateless and safe for concurrent use.
type LanguageModel interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Options are the generation knobs shared by all providers. Temperature 0
// is the deterministic mode the router and query generator rely on.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Func adapts a function to LanguageModel.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
