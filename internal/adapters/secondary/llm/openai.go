// Package llm implements the chat-model client used for greeting
// generation. It is a thin secondary adapter over the OpenAI chat
// completions API; everything about prompt content and output parsing lives
// in the core service.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAIClient sends single-turn completion requests to an OpenAI-compatible
// chat endpoint.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// Config holds the chat client settings.
type Config struct {
	// APIKey authenticates against the API
	APIKey string

	// BaseURL overrides the default endpoint, for proxies and compatible
	// servers (pass "" for the default)
	BaseURL string

	// Model is the model identifier to request
	Model string

	// Temperature controls sampling variety
	Temperature float64

	// Timeout bounds each completion call
	Timeout time.Duration
}

// NewOpenAIClient creates a chat client from the given configuration.
func NewOpenAIClient(cfg Config, logger *zap.Logger) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}

	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	timeout := cfg.Timeout

	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// Complete sends one system+user message pair and returns the raw text of
// the first choice. JSON-object response mode is requested, but callers must
// still treat the output as untrusted.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       c.model,
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(150),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)

	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	c.logger.Debug("chat completion succeeded",
		zap.String("model", completion.Model),
		zap.Int64("total_tokens", completion.Usage.TotalTokens))

	return completion.Choices[0].Message.Content, nil
}
