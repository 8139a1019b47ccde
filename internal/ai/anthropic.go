package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 2048

type AnthropicConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	MaxOutputTokens int
	HTTPClient      *http.Client
}

// AnthropicClient implements Generator on the Messages API. Anthropic has no
// embedding endpoint, so embeddings always go through OpenAIClient.
type AnthropicClient struct {
	client anthropic.Client
	cfg    AnthropicConfig
}

var _ Generator = (*AnthropicClient)(nil)

func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
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
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
	}
}

func (c *AnthropicClient) Generate(ctx context.Context, system string, history []Message, message string) (string, error) {
	msg, err := c.client.Messages.New(ctx, c.messageParams(system, history, message))
	if err != nil {
		return "", newGenerationError(anthropicStatus(err), err)
	}
	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", &GenerationError{Err: errors.New("empty anthropic response")}
	}
	return out.String(), nil
}

func (c *AnthropicClient) Stream(ctx context.Context, system string, history []Message, message string) (TextStream, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	stream := c.client.Messages.NewStreaming(streamCtx, c.messageParams(system, history, message))
	return &anthropicStream{
		next: func() (string, bool) {
			for stream.Next() {
				event := stream.Current()
				if event.Type != "content_block_delta" || event.Delta.Type != "text_delta" || event.Delta.Text == "" {
					continue
				}
				return event.Delta.Text, true
			}
			return "", false
		},
		err:    stream.Err,
		close:  stream.Close,
		cancel: cancel,
	}, nil
}

func (c *AnthropicClient) messageParams(system string, history []Message, message string) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, item := range history {
		if item.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(item.Content)))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(item.Content)))
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxOutputTokens),
		Messages:  messages,
	}
	if strings.TrimSpace(system) != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

type anthropicStream struct {
	next   func() (string, bool)
	err    func() error
	close  func() error
	cancel context.CancelFunc
	text   string
}

func (s *anthropicStream) Next() bool {
	text, ok := s.next()
	if ok {
		s.text = text
	}
	return ok
}

func (s *anthropicStream) Text() string { return s.text }

func (s *anthropicStream) Err() error {
	if err := s.err(); err != nil {
		return newGenerationError(anthropicStatus(err), err)
	}
	return nil
}

func (s *anthropicStream) Close() error {
	s.cancel()
	return s.close()
}

func anthropicStatus(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
