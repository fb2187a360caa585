package driving

import (
	"context"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Set stores a single setting by dot-notation key (e.g. "llm.provider").
	Set(key string, value any) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the current settings are usable.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig(ctx context.Context) error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig(ctx context.Context) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// GetSchedulerConfig returns the scheduler configuration.
	GetSchedulerConfig() domain.SchedulerConfig

	// ConfigPath returns the path of the backing configuration file.
	ConfigPath() string
}
