// Package retrieval finds the policy passages most relevant to a question.
package retrieval

import (
	"context"
	"errors"
)

var (
	ErrRetrievalFailed = errors.New("RETRIEVAL_FAILED")
	ErrEmbeddingFailed = errors.New("EMBEDDING_FAILED")
)

// Passage is one retrieved chunk of a policy or contract document.
type Passage struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// Retriever returns up to topK passages ordered by relevance.
type Retriever interface {
	Query(ctx context.Context, text string, topK int) ([]Passage, error)
}

// Embedder turns query text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RetrieverFunc adapts a function to Retriever.
type RetrieverFunc func(ctx context.Context, text string, topK int) ([]Passage, error)

func (f RetrieverFunc) Query(ctx context.Context, text string, topK int) ([]Passage, error) {
	return f(ctx, text, topK)
}
