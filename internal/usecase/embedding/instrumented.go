package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/domain"
)

// DefaultMaxAPIBatchSize — максимальный размер батча для одного API-запроса.
const DefaultMaxAPIBatchSize = 256

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// InstrumentedEmbedder wraps an embedder with budget enforcement, chunking,
// a per-call timeout and logging. Transport metrics live in transport/openai.
type InstrumentedEmbedder struct {
	inner       domain.Embedder
	provider    string
	model       string
	maxBatch    int
	callTimeout time.Duration
	budget      BudgetChecker
	logger      *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. budget may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:       inner,
		provider:    provider,
		model:       model,
		maxBatch:    DefaultMaxAPIBatchSize,
		callTimeout: domain.DefaultCallTimeout,
		budget:      budget,
		logger:      logger,
	}
}

// WithMaxBatch caps the number of texts per upstream request.
func (p *InstrumentedEmbedder) WithMaxBatch(n int) *InstrumentedEmbedder {
	if n > 0 {
		p.maxBatch = n
	}
	return p
}

// WithCallTimeout bounds each upstream request.
func (p *InstrumentedEmbedder) WithCallTimeout(d time.Duration) *InstrumentedEmbedder {
	if d > 0 {
		p.callTimeout = d
	}
	return p
}

// Model returns the embedding model name, for traces.
func (p *InstrumentedEmbedder) Model() string { return p.model }

// Provider returns the provider name, for traces.
func (p *InstrumentedEmbedder) Provider() string { return p.provider }

// Embed vectorizes a single text.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	res, err := p.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed проверяет бюджет, разбивает на sub-batches, делегирует inner.
// The result is all-or-nothing and keeps input order.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	result, err := p.embedChunked(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// embedChunked splits texts into maxBatch chunks, re-checking the budget before each.
func (p *InstrumentedEmbedder) embedChunked(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	allEmbeddings := make([][]float32, 0, len(texts))
	var totalPrompt, totalTokens int

	for offset := 0; offset < len(texts); offset += p.maxBatch {
		if p.budget != nil {
			if err := p.budget.Check(ctx); err != nil {
				p.logger.Error("Budget exceeded",
					zap.String("provider", p.provider),
					zap.String("model", p.model),
					zap.Int("chunk_offset", offset),
					zap.Error(err),
				)
				return domain.BatchEmbeddingResult{}, fmt.Errorf("budget check (chunk %d): %w", offset, err)
			}
		}

		end := min(offset+p.maxBatch, len(texts))
		chunk := texts[offset:end]

		var chunkResult domain.BatchEmbeddingResult
		err := domain.CallWithTimeout(ctx, p.callTimeout, "embedding", func(ctx context.Context) error {
			var err error
			chunkResult, err = domain.EmbedBatch(ctx, p.inner, chunk)
			return err
		})
		if err == nil && len(chunkResult.Embeddings) != len(chunk) {
			err = fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbedding, len(chunkResult.Embeddings), len(chunk))
		}
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}

		if p.budget != nil {
			p.budget.Record(int64(chunkResult.TotalTokens))
		}

		allEmbeddings = append(allEmbeddings, chunkResult.Embeddings...)
		totalPrompt += chunkResult.PromptTokens
		totalTokens += chunkResult.TotalTokens
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   allEmbeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}
