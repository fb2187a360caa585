// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/embedding/hash"
	ollamaembed "github.com/custodia-labs/oceanai-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/oceanai-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/oceanai-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/oceanai-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/oceanai-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues that disabled a service.
}

// Init creates and validates the embedding and LLM services.
// A service that cannot be reached is left nil with a warning: semantic
// search is then skipped and answers use the deterministic fallback.
func Init(ctx context.Context, settings *domain.AppSettings) *InitResult {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		logger.Warn("embedding service disabled", "provider", settings.Embedding.Provider, "error", err)
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.EmbeddingService = embedder

	llm, err := CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		logger.Warn("llm service disabled", "provider", settings.LLM.Provider, "error", err)
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.LLMService = llm

	return result
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil, nil when no provider is configured.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'oceanai settings set embedding.provider' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(ctx, svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns nil, nil when no provider is configured.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'oceanai settings set llm.provider' to fix",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(ctx, svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, svc.Ping)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, svc.Ping)
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderNone, "":
		return nil, nil

	case domain.AIProviderHash:
		return hash.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use hash, ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderNone, "":
		return nil, nil

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderHash:
		return nil, fmt.Errorf("hash is an embedding provider only")

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}
