// Package worker runs document ingestion outside the request that created
// the document, either from a RabbitMQ queue or on a local goroutine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notetutor/internal/cache"
	"notetutor/internal/model"
	"notetutor/internal/rag"
)

// IngestJob asks for one document to be chunked, embedded and indexed.
type IngestJob struct {
	ID         string    `json:"id"`
	DocumentID uint      `json:"document_id"`
	UserID     uint      `json:"user_id"`
	QueuedAt   time.Time `json:"queued_at"`
}

// Dispatcher hands a job to whatever runs ingestion.
type Dispatcher interface {
	Dispatch(ctx context.Context, job IngestJob) error
}

type DocumentSource interface {
	GetByIDAndUserID(id, userID uint) (*model.Document, error)
}

type StatusRecorder interface {
	Set(ctx context.Context, documentID uint, status cache.IngestStatus) error
}

type Indexer interface {
	Process(ctx context.Context, req rag.IngestRequest) (int, error)
}

// ChunkRemover drops chunks written for a document deleted mid-ingest.
type ChunkRemover interface {
	DeleteDocument(ctx context.Context, documentID uint) error
}

var errDocumentGone = errors.New("document no longer exists")

// Processor runs one ingest job and records its outcome.
type Processor struct {
	docs    DocumentSource
	indexer Indexer
	chunks  ChunkRemover
	status  StatusRecorder
	timeout time.Duration
	logger  *zap.Logger
}

func NewProcessor(docs DocumentSource, indexer Indexer, chunks ChunkRemover, status StatusRecorder, timeout time.Duration, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{docs: docs, indexer: indexer, chunks: chunks, status: status, timeout: timeout, logger: logger}
}

func (p *Processor) Handle(ctx context.Context, job IngestJob) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	log := p.logger.With(zap.String("job_id", job.ID), zap.Uint("document_id", job.DocumentID))

	doc, err := p.docs.GetByIDAndUserID(job.DocumentID, job.UserID)
	if err != nil {
		p.record(ctx, job.DocumentID, cache.IngestStatus{State: cache.IngestFailed, Error: "document lookup failed"})
		return fmt.Errorf("load document failed: %w", err)
	}
	if doc == nil {
		log.Warn("ingest job for missing document dropped")
		return errDocumentGone
	}

	chunks, err := p.indexer.Process(ctx, rag.IngestRequest{DocumentID: doc.ID, OwnerID: doc.UserID, Text: doc.Content})
	// The note may have been deleted while embedding ran; its chunks must not outlive it.
	gone, checkErr := p.documentGone(ctx, job)
	switch {
	case gone && checkErr != nil:
		log.Error("document deleted during ingest, chunk cleanup failed", zap.Error(checkErr))
		return checkErr
	case gone:
		log.Warn("document deleted during ingest, dropped its chunks")
		return errDocumentGone
	case checkErr != nil:
		log.Warn("recheck document failed", zap.Error(checkErr))
	}
	if err != nil {
		log.Error("ingest failed", zap.Error(err))
		p.record(ctx, doc.ID, cache.IngestStatus{State: cache.IngestFailed, Error: "indexing failed"})
		return err
	}

	p.record(ctx, doc.ID, cache.IngestStatus{State: cache.IngestReady, Chunks: chunks})
	log.Info("ingest finished", zap.Int("chunks", chunks), zap.Duration("queued_for", time.Since(job.QueuedAt)))
	return nil
}

// documentGone reports whether the job's document no longer exists and, if so,
// removes any chunks the pipeline already wrote for it.
func (p *Processor) documentGone(ctx context.Context, job IngestJob) (bool, error) {
	doc, err := p.docs.GetByIDAndUserID(job.DocumentID, job.UserID)
	if err != nil {
		return false, err
	}
	if doc != nil {
		return false, nil
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.chunks.DeleteDocument(cleanupCtx, job.DocumentID); err != nil {
		return true, fmt.Errorf("delete orphan chunks failed: %w", err)
	}
	return true, nil
}

func (p *Processor) record(ctx context.Context, documentID uint, status cache.IngestStatus) {
	// The job context may already be expired; status writes get their own budget.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := p.status.Set(writeCtx, documentID, status); err != nil {
		p.logger.Warn("record ingest status failed", zap.Uint("document_id", documentID), zap.Error(err))
	}
}
