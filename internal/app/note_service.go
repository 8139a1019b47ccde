package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notetutor/internal/cache"
	"notetutor/internal/model"
	"notetutor/internal/pkg/pdfextract"
	"notetutor/internal/vectorindex"
	"notetutor/internal/worker"
)

const defaultNoteTitle = "Untitled Note"

// NoteService owns the lifecycle of uploaded notes: storage, background
// indexing, summaries and deletion.
type NoteService struct {
	docs       DocumentStore
	index      vectorindex.Index
	status     IngestStatusStore
	dispatcher worker.Dispatcher
	archive    UploadArchive
	generators Generators
	logger     *zap.Logger
}

type CreateNoteInput struct {
	UserID  uint
	Title   string
	Content string
}

type UploadNoteInput struct {
	UserID      uint
	Title       string
	Filename    string
	ContentType string
	Data        []byte
}

func NewNoteService(
	docs DocumentStore,
	index vectorindex.Index,
	status IngestStatusStore,
	dispatcher worker.Dispatcher,
	archive UploadArchive,
	generators Generators,
	logger *zap.Logger,
) *NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{
		docs:       docs,
		index:      index,
		status:     status,
		dispatcher: dispatcher,
		archive:    archive,
		generators: generators,
		logger:     logger,
	}
}

func (s *NoteService) CreateNote(ctx context.Context, input CreateNoteInput) (*model.Document, error) {
	if input.UserID == 0 {
		return nil, ErrUnauthorized
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultNoteTitle
	}

	doc := &model.Document{UserID: input.UserID, Title: title, Content: content}
	if err := s.docs.Create(doc); err != nil {
		return nil, err
	}
	s.enqueueIngest(ctx, doc)
	return doc, nil
}

// UploadNote extracts the text of a PDF and stores it as a note. The original
// file goes to the archive when one is configured.
func (s *NoteService) UploadNote(ctx context.Context, input UploadNoteInput) (*model.Document, error) {
	if input.UserID == 0 {
		return nil, ErrUnauthorized
	}
	if len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}
	text, err := pdfextract.ExtractText(input.Data)
	if err != nil {
		s.logger.Info("pdf extraction failed", zap.String("filename", input.Filename), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = titleFromFilename(input.Filename)
	}
	if s.archive != nil {
		key, err := s.archive.Put(ctx, input.UserID, input.Filename, input.ContentType, input.Data)
		if err != nil {
			s.logger.Warn("archive upload failed", zap.Uint("user_id", input.UserID), zap.Error(err))
		} else {
			s.logger.Info("upload archived", zap.String("key", key))
		}
	}
	return s.CreateNote(ctx, CreateNoteInput{UserID: input.UserID, Title: title, Content: text})
}

// titleFromFilename drops a ".pdf" extension in any letter case.
func titleFromFilename(filename string) string {
	name := strings.TrimSpace(filename)
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.TrimSpace(name)
}

func (s *NoteService) enqueueIngest(ctx context.Context, doc *model.Document) {
	log := s.logger.With(zap.Uint("document_id", doc.ID))
	if err := s.status.Set(ctx, doc.ID, cache.IngestStatus{State: cache.IngestProcessing}); err != nil {
		log.Warn("record ingest status failed", zap.Error(err))
	}
	job := worker.IngestJob{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		QueuedAt:   time.Now().UTC(),
	}
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		log.Error("dispatch ingest job failed", zap.Error(err))
		_ = s.status.Set(ctx, doc.ID, cache.IngestStatus{State: cache.IngestFailed, Error: "could not queue indexing"})
	}
}

// ReindexAll queues ingestion for every stored note. An in-memory index starts
// empty, so this runs at startup to rebuild it from the database.
func (s *NoteService) ReindexAll(ctx context.Context) (int, error) {
	docs, err := s.docs.ListAll()
	if err != nil {
		return 0, err
	}
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		s.enqueueIngest(ctx, &docs[i])
	}
	return len(docs), nil
}

func (s *NoteService) ListNotes(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	return s.docs.ListByUserID(userID)
}

func (s *NoteService) GetNote(userID, id uint) (*model.Document, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	doc, err := s.docs.GetByIDAndUserID(id, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// DeleteNote removes the note and its chunks. Quizzes and Q&A made from it are kept.
// The row goes first so an ingest still running sees the note gone and cleans
// up whatever it writes after the chunks below are removed.
func (s *NoteService) DeleteNote(ctx context.Context, userID, id uint) error {
	if _, err := s.GetNote(userID, id); err != nil {
		return err
	}
	if err := s.docs.DeleteByIDAndUserID(id, userID); err != nil {
		return err
	}
	if err := s.index.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if err := s.status.Delete(ctx, id); err != nil {
		s.logger.Warn("delete ingest status failed", zap.Uint("document_id", id), zap.Error(err))
	}
	return nil
}

func (s *NoteService) IngestStatus(ctx context.Context, userID, id uint) (*cache.IngestStatus, error) {
	if _, err := s.GetNote(userID, id); err != nil {
		return nil, err
	}
	status, ok, err := s.status.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Expired or never recorded; the note predates the status TTL.
		return &cache.IngestStatus{State: cache.IngestReady}, nil
	}
	return status, nil
}

// Summarize generates a summary and saves it on the note.
func (s *NoteService) Summarize(ctx context.Context, userID, id uint) (string, error) {
	doc, err := s.GetNote(userID, id)
	if err != nil {
		return "", err
	}
	summary, err := s.generators.Summary(ctx, doc.Title, doc.Content)
	if err != nil {
		return "", generationFailure(err)
	}
	if err := s.docs.SetSummary(doc.ID, userID, summary); err != nil {
		return "", err
	}
	return summary, nil
}

func generationFailure(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("generation failed: %w", err)
}
