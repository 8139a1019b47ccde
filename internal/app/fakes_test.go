package app

import (
	"context"
	"errors"
	"sort"
	"sync"

	"notetutor/internal/ai"
	"notetutor/internal/cache"
	"notetutor/internal/model"
	"notetutor/internal/study"
	"notetutor/internal/worker"
)

type memoryDocs struct {
	mu     sync.Mutex
	nextID uint
	docs   map[uint]*model.Document
}

func newMemoryDocs() *memoryDocs {
	return &memoryDocs{docs: map[uint]*model.Document{}}
}

func (m *memoryDocs) Create(doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	doc.ID = m.nextID
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *memoryDocs) ListByUserID(userID uint) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Document
	for _, d := range m.docs {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryDocs) ListAll() ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, model.Document{ID: d.ID, UserID: d.UserID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryDocs) GetByIDAndUserID(id, userID uint) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.UserID != userID {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *memoryDocs) SetSummary(id, userID uint, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[id]; ok && d.UserID == userID {
		d.Summary = &summary
	}
	return nil
}

func (m *memoryDocs) DeleteByIDAndUserID(id, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[id]; ok && d.UserID == userID {
		delete(m.docs, id)
	}
	return nil
}

type memoryArtifacts struct {
	mu     sync.Mutex
	nextID uint
	items  map[uint]*model.Artifact
}

func newMemoryArtifacts() *memoryArtifacts {
	return &memoryArtifacts{items: map[uint]*model.Artifact{}}
}

func (m *memoryArtifacts) Create(a *model.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memoryArtifacts) ListByUserIDAndKind(userID uint, kind model.ArtifactKind) ([]model.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Artifact
	for _, a := range m.items {
		if a.UserID == userID && a.Kind == kind {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryArtifacts) GetByIDAndUserID(id, userID uint, kind model.ArtifactKind) (*model.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok || a.UserID != userID || a.Kind != kind {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memoryArtifacts) DeleteByIDAndUserID(id, userID uint, kind model.ArtifactKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok || a.UserID != userID || a.Kind != kind {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *memoryArtifacts) SetScore(id, userID uint, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.items[id]; ok && a.UserID == userID {
		a.Score = &score
	}
	return nil
}

type memoryStatus struct {
	mu  sync.Mutex
	set map[uint]cache.IngestStatus
}

func newMemoryStatus() *memoryStatus {
	return &memoryStatus{set: map[uint]cache.IngestStatus{}}
}

func (m *memoryStatus) Set(ctx context.Context, id uint, status cache.IngestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set[id] = status
	return nil
}

func (m *memoryStatus) Get(ctx context.Context, id uint) (*cache.IngestStatus, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.set[id]
	if !ok {
		return nil, false, nil
	}
	return &st, true, nil
}

func (m *memoryStatus) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.set, id)
	return nil
}

type recordingDispatcher struct {
	jobs []worker.IngestJob
	err  error
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, job worker.IngestJob) error {
	r.jobs = append(r.jobs, job)
	return r.err
}

// fixedEmbedder returns the same query vector for every message.
type fixedEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fixedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

// sliceStream replays fragments and can fail after them.
type sliceStream struct {
	parts  []string
	pos    int
	err    error
	closed bool
}

func (s *sliceStream) Next() bool {
	if s.closed || s.pos >= len(s.parts) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceStream) Text() string { return s.parts[s.pos-1] }

func (s *sliceStream) Err() error {
	if s.pos >= len(s.parts) {
		return s.err
	}
	return nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

type fakeGenerator struct {
	stream    *sliceStream
	streamErr error
	system    string
	history   []ai.Message
	message   string
	calls     int
}

func (f *fakeGenerator) Generate(ctx context.Context, system string, history []ai.Message, message string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeGenerator) Stream(ctx context.Context, system string, history []ai.Message, message string) (ai.TextStream, error) {
	f.calls++
	f.system, f.history, f.message = system, history, message
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}

type fakeGenerators struct {
	quiz    *study.Quiz
	qa      *study.QASet
	summary string
	err     error
	calls   int
}

func (f *fakeGenerators) Quiz(ctx context.Context, title, text string) (*study.Quiz, error) {
	f.calls++
	return f.quiz, f.err
}

func (f *fakeGenerators) QA(ctx context.Context, title, text string) (*study.QASet, error) {
	f.calls++
	return f.qa, f.err
}

func (f *fakeGenerators) Summary(ctx context.Context, title, text string) (string, error) {
	f.calls++
	return f.summary, f.err
}
