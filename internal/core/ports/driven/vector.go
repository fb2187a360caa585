package driven

import (
	"context"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// VectorIndex provides nearest-neighbour search over fixed-length vectors.
// Positions are assigned in insertion order starting at zero.
type VectorIndex interface {
	// Add appends a vector and returns its position.
	Add(ctx context.Context, embedding []float32) (int, error)

	// Search finds the k nearest vectors by ascending squared L2 distance.
	// Ties are broken by position.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Size returns the number of indexed vectors.
	Size() int

	// Dimensions returns the vector length the index accepts.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the insertion position of the matched vector.
	Position int

	// Distance is the squared Euclidean distance to the query.
	Distance float32
}

// VectorIndexFactory creates an empty index for the given dimensions.
type VectorIndexFactory func(dimensions int) VectorIndex

// IndexArtifactStore persists index generations.
type IndexArtifactStore interface {
	// Publish writes the snapshot as a new generation and activates it atomically.
	// Readers see either the previous generation or the new one, never a mix.
	Publish(ctx context.Context, snapshot *domain.IndexSnapshot) (domain.IndexMeta, error)

	// Open loads the active generation.
	// Returns domain.ErrIndexNotFound when nothing has been published.
	Open(ctx context.Context) (*domain.IndexSnapshot, error)

	// Active returns the active generation's metadata without loading vectors.
	Active(ctx context.Context) (domain.IndexMeta, error)

	// Dir returns the artifact directory.
	Dir() string
}
