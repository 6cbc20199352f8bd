package domain

import (
	"context"
	"fmt"
)

// Embedder turns text into a vector. Implementations are stacked as
// decorators (cache, budget, metrics, instruction) around a provider client.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbedderFunc adapts a plain function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) (EmbeddingResult, error)

func (f EmbedderFunc) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return f(ctx, text)
}

// EmbeddingResult is a vector plus the provider-reported token usage.
// Cached results carry zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// NewInstructionEmbedder prefixes every text with instruction before passing
// it to next. Documents and queries use different instructions; an empty one
// returns next as is.
func NewInstructionEmbedder(next Embedder, instruction string) Embedder {
	if instruction == "" {
		return next
	}
	return EmbedderFunc(func(ctx context.Context, text string) (EmbeddingResult, error) {
		res, err := next.Embed(ctx, instruction+text)
		if err != nil {
			return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
		}
		return res, nil
	})
}
