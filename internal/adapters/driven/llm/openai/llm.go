// Package openai provides an LLM service adapter using the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using the OpenAI API.
type LLMService struct {
	client *goopenai.Client
	model  string
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &LLMService{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	messages := []driven.ChatMessage{{Role: goopenai.ChatMessageRoleUser, Content: prompt}}
	chatOpts := driven.ChatOptions{
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	return s.complete(ctx, messages, chatOpts, opts.StopWords)
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return s.complete(ctx, messages, opts, nil)
}

func (s *LLMService) complete(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions, stop []string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    make([]goopenai.ChatCompletionMessage, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
		Stop:        stop,
	}
	for i, msg := range messages {
		req.Messages[i] = goopenai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", wrapError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return wrapError("ping", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

func wrapError(op string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai %s (status %d): %w", op, apiErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("openai %s: %w", op, err)
}
