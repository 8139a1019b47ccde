package rag

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"notetutor/internal/ai"
)

type EmbedderConfig struct {
	Dimensions        int
	BatchSize         int
	Concurrency       int
	RequestsPerSecond float64
}

// Embedder batches texts for an EmbeddingProvider and guarantees one vector of
// the configured length per input, in input order.
type Embedder struct {
	provider ai.EmbeddingProvider
	cfg      EmbedderConfig
	limiter  *rate.Limiter
}

func NewEmbedder(provider ai.EmbeddingProvider, cfg EmbedderConfig) *Embedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Embedder{
		provider: provider,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, cfg.Concurrency),
	}
}

func (e *Embedder) Dimensions() int { return e.cfg.Dimensions }

func (e *Embedder) Embed(ctx context.Context, texts []string, mode ai.EmbedMode) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		start := start
		end := min(start+e.cfg.BatchSize, len(texts))
		g.Go(func() error {
			if err := e.limiter.Wait(gctx); err != nil {
				return err
			}
			batch := texts[start:end]
			vectors, err := e.provider.Embed(gctx, batch, mode, e.cfg.Dimensions)
			if err != nil {
				return err
			}
			if err := e.check(vectors, len(batch)); err != nil {
				return err
			}
			copy(out[start:end], vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text}, ai.EmbedQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) check(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return &ai.EmbeddingServiceError{Err: fmt.Errorf("expected %d embeddings, got %d", want, len(vectors))}
	}
	for i, vec := range vectors {
		if len(vec) != e.cfg.Dimensions {
			return &ai.EmbeddingServiceError{Err: fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(vec), e.cfg.Dimensions)}
		}
	}
	return nil
}
