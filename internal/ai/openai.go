package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

type OpenAIConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	EmbeddingModel  string
	MaxOutputTokens int
	// Prefixes stand in for provider task types on plain OpenAI-compatible endpoints.
	QueryPrefix    string
	DocumentPrefix string
	HTTPClient     *http.Client
}

// OpenAIClient talks to any OpenAI-compatible endpoint for chat and embeddings.
type OpenAIClient struct {
	client openai.Client
	cfg    OpenAIConfig
}

var (
	_ EmbeddingProvider = (*OpenAIClient)(nil)
	_ Generator         = (*OpenAIClient)(nil)
)

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
		option.WithHTTPClient(httpClient),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base+"/"))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

func (c *OpenAIClient) Embed(ctx context.Context, texts []string, mode EmbedMode, dims int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	prefix := c.cfg.DocumentPrefix
	if mode == EmbedQuery {
		prefix = c.cfg.QueryPrefix
	}
	inputs := make([]string, len(texts))
	for i, text := range texts {
		inputs[i] = prefix + text
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
	}
	if dims > 0 {
		params.Dimensions = openai.Int(int64(dims))
	}

	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, &EmbeddingServiceError{StatusCode: openAIStatus(err), Err: err}
	}
	if len(resp.Data) != len(texts) {
		return nil, &EmbeddingServiceError{Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))}
	}

	// Providers may return items out of order; the index field is authoritative.
	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		idx := int(item.Index)
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			return nil, &EmbeddingServiceError{Err: fmt.Errorf("invalid embedding index %d", item.Index)}
		}
		vec := make([]float32, len(item.Embedding))
		for i, f := range item.Embedding {
			vec[i] = float32(f)
		}
		out[idx] = vec
	}
	return out, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, system string, history []Message, message string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, c.chatParams(system, history, message))
	if err != nil {
		return "", newGenerationError(openAIStatus(err), err)
	}
	if len(completion.Choices) == 0 {
		return "", &GenerationError{Err: errors.New("empty llm choices")}
	}
	return completion.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, system string, history []Message, message string) (TextStream, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	stream := c.client.Chat.Completions.NewStreaming(streamCtx, c.chatParams(system, history, message))
	return &openAIStream{stream: stream, cancel: cancel}, nil
}

func (c *OpenAIClient) chatParams(system string, history []Message, message string) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, item := range history {
		if item.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(item.Content))
			continue
		}
		messages = append(messages, openai.UserMessage(item.Content))
	}
	messages = append(messages, openai.UserMessage(message))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(c.cfg.Model),
	}
	if c.cfg.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxOutputTokens))
	}
	return params
}

type chunkStream interface {
	Next() bool
	Current() openai.ChatCompletionChunk
	Err() error
	Close() error
}

type openAIStream struct {
	stream chunkStream
	cancel context.CancelFunc
	text   string
}

func (s *openAIStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		s.text = chunk.Choices[0].Delta.Content
		return true
	}
	return false
}

func (s *openAIStream) Text() string { return s.text }

func (s *openAIStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return newGenerationError(openAIStatus(err), err)
	}
	return nil
}

func (s *openAIStream) Close() error {
	s.cancel()
	return s.stream.Close()
}

func openAIStatus(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
