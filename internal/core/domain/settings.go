package domain

import (
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// StorageBackend identifies the profile store implementation.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite is a local embedded database. Geometry is stored as WKT text.
	StorageSQLite StorageBackend = "sqlite"

	// StoragePostgres is PostgreSQL with PostGIS geometry.
	StoragePostgres StorageBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StoragePostgres
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderNone disables the service.
	AIProviderNone AIProvider = "none"

	// AIProviderHash is the built-in deterministic hashing embedder.
	AIProviderHash AIProvider = "hash"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised and not disabled.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHash, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHash
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderNone:
		return "Disabled"
	case AIProviderHash:
		return "Hashing (built-in, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// StorageSettings holds profile store configuration.
type StorageSettings struct {
	// Backend selects the profile store.
	Backend StorageBackend

	// DataDir holds the SQLite database and local state.
	DataDir string

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string
}

// IngestSettings holds ingestion pipeline configuration.
type IngestSettings struct {
	// SourceDir is the directory scanned for profile files.
	SourceDir string

	// Extension filters source files (case-insensitive).
	Extension string

	// LedgerPath is the append-only record of processed files.
	LedgerPath string

	// BatchSize is the number of rows per insert batch.
	BatchSize int

	// RequireInstrumentID rejects files whose platform number does not parse.
	RequireInstrumentID bool
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Dir holds published index generations.
	Dir string

	// RelatedFloats is how many nearest floats are added to answer context.
	RelatedFloats int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's default vector size.
	Dimensions int

	// RateLimit caps embedding requests per second during index builds.
	RateLimit float64

	// Concurrency bounds parallel embedding requests during index builds.
	Concurrency int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Timeout bounds a single generation call.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHash {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Storage holds profile store settings.
	Storage StorageSettings

	// Ingest holds ingestion pipeline settings.
	Ingest IngestSettings

	// Index holds vector index settings.
	Index IndexSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// DemoData substitutes sample data when the store cannot be queried.
	DemoData bool
}

// DefaultAppSettings returns settings with sensible defaults.
// Paths are relative to home, which is normally ~/.oceanai.
// The LLM is left unconfigured; answers use deterministic templates until one is set.
func DefaultAppSettings(home string) AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Backend: StorageSQLite,
			DataDir: filepath.Join(home, "data"),
		},
		Ingest: IngestSettings{
			SourceDir:           filepath.Join(home, "argo"),
			Extension:           ".nc",
			LedgerPath:          filepath.Join(home, "data", "ingested_files.log"),
			BatchSize:           1000,
			RequireInstrumentID: true,
		},
		Index: IndexSettings{
			Dir:           filepath.Join(home, "index"),
			RelatedFloats: 3,
		},
		Embedding: EmbeddingSettings{
			Provider:    AIProviderHash,
			Model:       DefaultEmbeddingModels()[AIProviderHash],
			RateLimit:   10,
			Concurrency: 4,
		},
		LLM: LLMSettings{
			Provider: AIProviderNone,
			Timeout:  30 * time.Second,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHash,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderNone,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHash:   "hash-fnv-384",
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Built-in
		"hash-fnv-384": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
