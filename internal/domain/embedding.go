package domain

import (
	"context"
	"fmt"
)

// Embedder turns one text into a vector. Every embedding decorator
// (budget, cache, metrics) wraps this interface.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder is implemented by embedders that can vectorize many texts in
// one provider call. Embeddings[i] belongs to texts[i].
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// EmbeddingResult is one vector plus the tokens the provider billed for it.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds vectors in input order and the summed token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

func (b *BatchEmbeddingResult) add(r EmbeddingResult) {
	b.Embeddings = append(b.Embeddings, r.Embedding)
	b.PromptTokens += r.PromptTokens
	b.TotalTokens += r.TotalTokens
}

// EmbedBatch vectorizes texts with a single BatchEmbed call when e supports
// it, otherwise with one Embed call per text. No texts, no calls.
func EmbedBatch(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return BatchEmbeddingResult{}, nil
	}
	if be, ok := e.(BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts) //nolint:wrapcheck // callers wrap with stage context
	}

	out := BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("embed text %d of %d: %w", i+1, len(texts), err)
		}
		out.add(res)
	}
	return out, nil
}
