// Package ai holds the model-provider contracts used by the RAG pipeline and
// the study generators, plus the OpenAI-compatible and Anthropic clients.
package ai

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// EmbedMode tells the provider whether texts are stored passages or search queries.
type EmbedMode string

const (
	EmbedDocument EmbedMode = "document"
	EmbedQuery    EmbedMode = "query"
)

// EmbeddingProvider returns one vector per input text, in input order.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string, mode EmbedMode, dims int) ([][]float32, error)
}

// Generator produces assistant replies for a system instruction, prior turns and a new message.
type Generator interface {
	Generate(ctx context.Context, system string, history []Message, message string) (string, error)
	Stream(ctx context.Context, system string, history []Message, message string) (TextStream, error)
}

// TextStream is a pull-based sequence of reply fragments. Close releases the
// upstream connection and may be called at any point, including mid-stream.
type TextStream interface {
	Next() bool
	Text() string
	Err() error
	Close() error
}
