// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, semantic search is disabled.
//
// The same model must be used to build an index and to query it; the
// model name and dimensions are recorded with every index generation.
//
// Implementations may include:
//   - Hashing (built-in, deterministic, offline)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (all-minilm, nomic-embed-text)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
