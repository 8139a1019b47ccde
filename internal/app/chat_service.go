package app

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"notetutor/internal/ai"
	"notetutor/internal/rag"
	"notetutor/internal/vectorindex"
)

type ChatPhase int32

const (
	PhaseIdle ChatPhase = iota
	PhaseEmbeddingQuery
	PhaseRetrieving
	PhaseAssemblingContext
	PhaseStreaming
	PhaseComplete
	PhaseFailed
)

func (p ChatPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEmbeddingQuery:
		return "embedding_query"
	case PhaseRetrieving:
		return "retrieving"
	case PhaseAssemblingContext:
		return "assembling_context"
	case PhaseStreaming:
		return "streaming"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type ChatConfig struct {
	TopK            int
	MaxContextChars int
	MaxHistory      int
}

// ChatService answers a student's message grounded in their own notes.
type ChatService struct {
	docs      DocumentStore
	embedder  QueryEmbedder
	index     vectorindex.Index
	generator ai.Generator
	cfg       ChatConfig
	logger    *zap.Logger
}

type ChatInput struct {
	UserID     uint
	DocumentID uint // 0 searches every note of the user
	History    []ai.Message
	Message    string
}

func NewChatService(
	docs DocumentStore,
	embedder QueryEmbedder,
	index vectorindex.Index,
	generator ai.Generator,
	cfg ChatConfig,
	logger *zap.Logger,
) *ChatService {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		docs:      docs,
		embedder:  embedder,
		index:     index,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Chat retrieves context for the message and opens the reply stream. The
// caller must Close the returned stream.
func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatStream, error) {
	if input.UserID == 0 {
		return nil, ErrUnauthorized
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrInvalidInput
	}
	if input.DocumentID != 0 {
		doc, err := s.docs.GetByIDAndUserID(input.DocumentID, input.UserID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, ErrNotFound
		}
	}

	stream := &ChatStream{logger: s.logger.With(zap.Uint("user_id", input.UserID), zap.Uint("document_id", input.DocumentID))}
	notes := s.retrieve(ctx, stream, input.UserID, input.DocumentID, message)

	stream.setPhase(PhaseStreaming)
	upstream, err := s.generator.Stream(ctx, rag.SystemInstruction(notes), clipHistory(input.History, s.cfg.MaxHistory), message)
	if err != nil {
		stream.setPhase(PhaseFailed)
		return nil, err
	}
	stream.upstream = upstream
	stream.sentinel = rag.IsSentinel(notes)
	stream.ctx = ctx
	return stream, nil
}

// retrieve falls back to the no-notes sentinel when embedding or search fails.
func (s *ChatService) retrieve(ctx context.Context, stream *ChatStream, userID, documentID uint, message string) string {
	stream.setPhase(PhaseEmbeddingQuery)
	vector, err := s.embedder.EmbedQuery(ctx, message)
	if err != nil {
		stream.logger.Warn("query embedding failed, answering without notes", zap.Error(err))
		stream.setPhase(PhaseAssemblingContext)
		return rag.NoNotesSentinel
	}

	stream.setPhase(PhaseRetrieving)
	var opts []vectorindex.SearchOption
	if documentID != 0 {
		opts = append(opts, vectorindex.WithDocument(documentID))
	}
	hits, err := s.index.Search(ctx, userID, vector, s.cfg.TopK, opts...)
	if err != nil {
		stream.logger.Warn("note retrieval failed, answering without notes", zap.Error(err))
		hits = nil
	}

	stream.setPhase(PhaseAssemblingContext)
	stream.logger.Debug("context retrieved", zap.Int("hits", len(hits)))
	return rag.AssembleContext(hits, s.cfg.MaxContextChars)
}

// clipHistory keeps the most recent turns with known roles and content.
func clipHistory(history []ai.Message, limit int) []ai.Message {
	out := make([]ai.Message, 0, len(history))
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := ai.RoleUser
		if m.Role == ai.RoleAssistant {
			role = ai.RoleAssistant
		}
		out = append(out, ai.Message{Role: role, Content: content})
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// ChatStream yields reply fragments as the model produces them. When no
// notes matched it appends the upload disclosure unless the model already
// wrote it.
type ChatStream struct {
	ctx      context.Context
	upstream ai.TextStream
	sentinel bool
	logger   *zap.Logger

	phase      atomic.Int32
	transcript strings.Builder
	text       string
	err        error
	drained    bool
	done       bool
	closeOnce  sync.Once
	closeErr   error
}

func (s *ChatStream) Phase() ChatPhase {
	return ChatPhase(s.phase.Load())
}

func (s *ChatStream) setPhase(p ChatPhase) {
	s.phase.Store(int32(p))
	if s.logger != nil {
		s.logger.Debug("chat phase", zap.Stringer("phase", p))
	}
}

func (s *ChatStream) Next() bool {
	if s.done {
		return false
	}
	if !s.drained {
		if s.upstream.Next() {
			s.text = s.upstream.Text()
			s.transcript.WriteString(s.text)
			return true
		}
		s.drained = true
		if err := s.upstream.Err(); err != nil {
			return s.fail(err)
		}
		if err := s.ctx.Err(); err != nil {
			return s.fail(err)
		}
		if s.sentinel && !strings.Contains(s.transcript.String(), rag.Disclosure) {
			s.text = "\n\n" + rag.Disclosure
			s.transcript.WriteString(s.text)
			return true
		}
	}
	s.done = true
	s.text = ""
	s.setPhase(PhaseComplete)
	_ = s.Close()
	return false
}

func (s *ChatStream) fail(err error) bool {
	s.err = err
	s.done = true
	s.text = ""
	s.setPhase(PhaseFailed)
	s.logger.Warn("chat stream failed", zap.Error(err))
	_ = s.Close()
	return false
}

func (s *ChatStream) Text() string { return s.text }

func (s *ChatStream) Err() error { return s.err }

// Transcript is everything yielded so far.
func (s *ChatStream) Transcript() string { return s.transcript.String() }

// Close releases the upstream immediately. Safe to call more than once.
func (s *ChatStream) Close() error {
	s.closeOnce.Do(func() {
		if !s.done {
			s.done = true
			if s.Phase() == PhaseStreaming {
				s.setPhase(PhaseFailed)
				s.err = context.Canceled
			}
		}
		s.closeErr = s.upstream.Close()
	})
	return s.closeErr
}
