// Package openai provides an embedding service adapter using the OpenAI API.
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

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only applicable to text-embedding-3-* models.
	Dimensions int
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client     *goopenai.Client
	model      string
	dimensions int

	// sendDimensions is true when the model accepts a dimensions parameter.
	sendDimensions bool
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = modelDimensions[cfg.Model]
		if !ok {
			dimensions = 1536
		}
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &EmbeddingService{
		client:         goopenai.NewClientWithConfig(clientCfg),
		model:          cfg.Model,
		dimensions:     dimensions,
		sendDimensions: cfg.Dimensions > 0 && (cfg.Model == "text-embedding-3-small" || cfg.Model == "text-embedding-3-large"),
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds all texts in one request. Results follow input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := goopenai.EmbeddingRequest{
		Input: texts,
		Model: goopenai.EmbeddingModel(s.model),
	}
	if s.sendDimensions {
		req.Dimensions = s.dimensions
	}

	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, wrapError("embeddings", err)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}
	for i, e := range embeddings {
		if e == nil {
			return nil, fmt.Errorf("openai: no embedding returned for text %d", i)
		}
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists models, which validates the API key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return wrapError("ping", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func wrapError(op string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai %s (status %d): %w", op, apiErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("openai %s: %w", op, err)
}
