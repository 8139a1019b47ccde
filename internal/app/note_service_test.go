package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notetutor/internal/ai"
	"notetutor/internal/cache"
	"notetutor/internal/model"
	"notetutor/internal/vectorindex"
)

type noteFixture struct {
	docs       *memoryDocs
	index      *vectorindex.MemoryIndex
	status     *memoryStatus
	dispatcher *recordingDispatcher
	generators *fakeGenerators
	service    *NoteService
}

func newNoteFixture() *noteFixture {
	f := &noteFixture{
		docs:       newMemoryDocs(),
		index:      vectorindex.NewMemoryIndex(2),
		status:     newMemoryStatus(),
		dispatcher: &recordingDispatcher{},
		generators: &fakeGenerators{},
	}
	f.service = NewNoteService(f.docs, f.index, f.status, f.dispatcher, nil, f.generators, nil)
	return f
}

func TestCreateNoteQueuesIngest(t *testing.T) {
	f := newNoteFixture()

	doc, err := f.service.CreateNote(context.Background(), CreateNoteInput{UserID: 3, Content: "  cells divide  "})
	require.NoError(t, err)

	assert.Equal(t, defaultNoteTitle, doc.Title)
	assert.Equal(t, "cells divide", doc.Content)
	require.Len(t, f.dispatcher.jobs, 1)
	assert.Equal(t, doc.ID, f.dispatcher.jobs[0].DocumentID)
	assert.Equal(t, uint(3), f.dispatcher.jobs[0].UserID)
	assert.NotEmpty(t, f.dispatcher.jobs[0].ID)
	assert.Equal(t, cache.IngestProcessing, f.status.set[doc.ID].State)
}

func TestCreateNoteDispatchFailureMarksFailed(t *testing.T) {
	f := newNoteFixture()
	f.dispatcher.err = errors.New("broker down")

	doc, err := f.service.CreateNote(context.Background(), CreateNoteInput{UserID: 3, Title: "Bio", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, cache.IngestFailed, f.status.set[doc.ID].State)
}

func TestCreateNoteValidation(t *testing.T) {
	f := newNoteFixture()

	_, err := f.service.CreateNote(context.Background(), CreateNoteInput{Content: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.service.CreateNote(context.Background(), CreateNoteInput{UserID: 3, Content: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.dispatcher.jobs)
}

func TestUploadNoteRejectsUnreadablePDF(t *testing.T) {
	f := newNoteFixture()

	_, err := f.service.UploadNote(context.Background(), UploadNoteInput{UserID: 3, Filename: "a.pdf", Data: []byte("not a pdf")})
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Empty(t, f.dispatcher.jobs)
}

func TestReindexAllQueuesEveryNote(t *testing.T) {
	f := newNoteFixture()
	ctx := context.Background()
	a, err := f.service.CreateNote(ctx, CreateNoteInput{UserID: 1, Content: "mitosis"})
	require.NoError(t, err)
	b, err := f.service.CreateNote(ctx, CreateNoteInput{UserID: 2, Content: "meiosis"})
	require.NoError(t, err)
	f.dispatcher.jobs = nil
	f.status.set = map[uint]cache.IngestStatus{}

	n, err := f.service.ReindexAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, f.dispatcher.jobs, 2)
	assert.Equal(t, a.ID, f.dispatcher.jobs[0].DocumentID)
	assert.Equal(t, uint(1), f.dispatcher.jobs[0].UserID)
	assert.Equal(t, b.ID, f.dispatcher.jobs[1].DocumentID)
	assert.Equal(t, uint(2), f.dispatcher.jobs[1].UserID)
	assert.Equal(t, cache.IngestProcessing, f.status.set[a.ID].State)
	assert.Equal(t, cache.IngestProcessing, f.status.set[b.ID].State)
}

func TestReindexAllStopsOnCancel(t *testing.T) {
	f := newNoteFixture()
	_, err := f.service.CreateNote(context.Background(), CreateNoteInput{UserID: 1, Content: "x"})
	require.NoError(t, err)
	f.dispatcher.jobs = nil

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := f.service.ReindexAll(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Empty(t, f.dispatcher.jobs)
}

func TestGetNoteOwnership(t *testing.T) {
	f := newNoteFixture()
	require.NoError(t, f.docs.Create(&model.Document{UserID: 3, Title: "Bio", Content: "x"}))

	_, err := f.service.GetNote(4, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	doc, err := f.service.GetNote(3, 1)
	require.NoError(t, err)
	assert.Equal(t, "Bio", doc.Title)
}

func TestDeleteNoteRemovesChunks(t *testing.T) {
	f := newNoteFixture()
	ctx := context.Background()
	require.NoError(t, f.docs.Create(&model.Document{UserID: 3, Title: "Bio", Content: "x"}))
	require.NoError(t, f.index.Upsert(ctx, []vectorindex.Item{{DocumentID: 1, OwnerID: 3, Content: "x", Vector: []float32{1, 0}}}))
	require.NoError(t, f.status.Set(ctx, 1, cache.IngestStatus{State: cache.IngestReady}))

	assert.ErrorIs(t, f.service.DeleteNote(ctx, 4, 1), ErrNotFound)
	require.NoError(t, f.service.DeleteNote(ctx, 3, 1))

	hits, err := f.index.Search(ctx, 3, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
	_, ok, _ := f.status.Get(ctx, 1)
	assert.False(t, ok)
}

// deleteOrderIndex records whether the note row still existed when its chunks were dropped.
type deleteOrderIndex struct {
	*vectorindex.MemoryIndex
	docs               *memoryDocs
	rowPresentOnDelete bool
}

func (d *deleteOrderIndex) DeleteDocument(ctx context.Context, documentID uint) error {
	d.docs.mu.Lock()
	_, d.rowPresentOnDelete = d.docs.docs[documentID]
	d.docs.mu.Unlock()
	return d.MemoryIndex.DeleteDocument(ctx, documentID)
}

func TestDeleteNoteRemovesRowBeforeChunks(t *testing.T) {
	f := newNoteFixture()
	index := &deleteOrderIndex{MemoryIndex: f.index, docs: f.docs}
	service := NewNoteService(f.docs, index, f.status, f.dispatcher, nil, f.generators, nil)
	require.NoError(t, f.docs.Create(&model.Document{UserID: 3, Title: "Bio", Content: "x"}))

	require.NoError(t, service.DeleteNote(context.Background(), 3, 1))

	assert.False(t, index.rowPresentOnDelete)
}

func TestTitleFromFilename(t *testing.T) {
	cases := map[string]string{
		"Cells.pdf":     "Cells",
		"Cells.PDF":     "Cells",
		" Notes.Pdf ":   "Notes",
		"chapter.1.pdf": "chapter.1",
		"scan.pdf.bak":  "scan.pdf.bak",
		".pdf":          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, titleFromFilename(in), in)
	}
}

func TestIngestStatus(t *testing.T) {
	f := newNoteFixture()
	ctx := context.Background()
	require.NoError(t, f.docs.Create(&model.Document{UserID: 3, Title: "Bio", Content: "x"}))

	status, err := f.service.IngestStatus(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, cache.IngestReady, status.State)

	require.NoError(t, f.status.Set(ctx, 1, cache.IngestStatus{State: cache.IngestProcessing}))
	status, err = f.service.IngestStatus(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, cache.IngestProcessing, status.State)
}

func TestSummarize(t *testing.T) {
	t.Run("saves summary on the note", func(t *testing.T) {
		f := newNoteFixture()
		f.generators.summary = "Short summary."
		require.NoError(t, f.docs.Create(&model.Document{UserID: 3, Title: "Bio", Content: "x"}))

		summary, err := f.service.Summarize(context.Background(), 3, 1)
		require.NoError(t, err)
		assert.Equal(t, "Short summary.", summary)

		doc, _ := f.docs.GetByIDAndUserID(1, 3)
		require.NotNil(t, doc.Summary)
		assert.Equal(t, "Short summary.", *doc.Summary)
	})

	t.Run("ownership checked before model call", func(t *testing.T) {
		f := newNoteFixture()
		require.NoError(t, f.docs.Create(&model.Document{UserID: 3, Title: "Bio", Content: "x"}))

		_, err := f.service.Summarize(context.Background(), 4, 1)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = f.service.Summarize(context.Background(), 0, 1)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Zero(t, f.generators.calls)
	})

	t.Run("overload surfaces", func(t *testing.T) {
		f := newNoteFixture()
		f.generators.err = &ai.GenerationError{StatusCode: 503, Overloaded: true, Err: errors.New("busy")}
		require.NoError(t, f.docs.Create(&model.Document{UserID: 3, Title: "Bio", Content: "x"}))

		_, err := f.service.Summarize(context.Background(), 3, 1)
		assert.ErrorIs(t, err, ai.ErrOverloaded)
	})
}
