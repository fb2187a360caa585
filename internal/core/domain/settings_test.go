package domain

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStorageBackend_IsValid(t *testing.T) {
	assert.True(t, StorageSQLite.IsValid())
	assert.True(t, StoragePostgres.IsValid())
	assert.False(t, StorageBackend("mysql").IsValid())
	assert.False(t, StorageBackend("").IsValid())
}

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{"hash is valid", AIProviderHash, true},
		{"ollama is valid", AIProviderOllama, true},
		{"openai is valid", AIProviderOpenAI, true},
		{"anthropic is valid", AIProviderAnthropic, true},
		{"none is not a provider", AIProviderNone, false},
		{"empty is invalid", AIProvider(""), false},
		{"unknown is invalid", AIProvider("gemini"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Disabled", AIProviderNone.Description())
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"hash needs nothing", EmbeddingSettings{Provider: AIProviderHash}, true},
		{"ollama needs no key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"anthropic has no embeddings", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
		{"none", EmbeddingSettings{Provider: AIProviderNone}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{Provider: AIProviderNone}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderHash}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	home := filepath.Join("tmp", "oceanai")
	settings := DefaultAppSettings(home)

	assert.Equal(t, StorageSQLite, settings.Storage.Backend)
	assert.Equal(t, filepath.Join(home, "data"), settings.Storage.DataDir)
	assert.Equal(t, ".nc", settings.Ingest.Extension)
	assert.Equal(t, 1000, settings.Ingest.BatchSize)
	assert.True(t, settings.Ingest.RequireInstrumentID)
	assert.Equal(t, filepath.Join(home, "data", "ingested_files.log"), settings.Ingest.LedgerPath)
	assert.Equal(t, AIProviderHash, settings.Embedding.Provider)
	assert.Equal(t, "hash-fnv-384", settings.Embedding.Model)
	assert.False(t, settings.LLM.IsConfigured())
	assert.Equal(t, 30*time.Second, settings.LLM.Timeout)
	assert.False(t, settings.DemoData)
}

func TestEmbeddingDimensions_DefaultModelsKnown(t *testing.T) {
	dims := EmbeddingDimensions()
	for provider, model := range DefaultEmbeddingModels() {
		assert.NotZero(t, dims[model], "default model for %s should have known dimensions", provider)
	}
}
