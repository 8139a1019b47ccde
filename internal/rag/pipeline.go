// Package rag turns note text into indexed chunk embeddings and assembles
// retrieved chunks into the tutor's system instruction.
package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"notetutor/internal/ai"
	"notetutor/internal/vectorindex"
)

type IngestRequest struct {
	DocumentID uint
	OwnerID    uint
	Text       string
}

// Pipeline is the write path: chunk, embed in document mode, upsert.
type Pipeline struct {
	embedder  *Embedder
	index     vectorindex.Index
	chunkSize int
	logger    *zap.Logger
}

func NewPipeline(embedder *Embedder, index vectorindex.Index, chunkSize int, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{embedder: embedder, index: index, chunkSize: chunkSize, logger: logger}
}

// Process indexes a document and returns how many chunks were written.
// Text without words indexes nothing.
func (p *Pipeline) Process(ctx context.Context, req IngestRequest) (int, error) {
	chunks := Chunk(req.Text, p.chunkSize)
	if len(chunks) == 0 {
		p.logger.Info("ingest skipped, no text", zap.Uint("document_id", req.DocumentID))
		return 0, nil
	}

	vectors, err := p.embedder.Embed(ctx, chunks, ai.EmbedDocument)
	if err != nil {
		return 0, fmt.Errorf("embed chunks failed: %w", err)
	}

	items := make([]vectorindex.Item, len(chunks))
	for i, content := range chunks {
		items[i] = vectorindex.Item{
			DocumentID: req.DocumentID,
			OwnerID:    req.OwnerID,
			Ordinal:    i,
			Content:    content,
			Vector:     vectors[i],
		}
	}
	if err := p.index.Upsert(ctx, items); err != nil {
		return 0, fmt.Errorf("index chunks failed: %w", err)
	}

	p.logger.Info("document indexed",
		zap.Uint("document_id", req.DocumentID),
		zap.Uint("user_id", req.OwnerID),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}
