package driving

import (
	"context"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// VectorSearchService resolves free text to float identifiers by semantic similarity.
// Implementations are read-only after construction and safe for concurrent use.
type VectorSearchService interface {
	// Search returns up to k float ids, nearest first.
	// It never fails: errors are logged and yield an empty result.
	Search(ctx context.Context, query string, k int) []int64

	// Nearest is Search with distances.
	Nearest(ctx context.Context, query string, k int) []domain.FloatMatch

	// Meta describes the loaded index generation.
	Meta() domain.IndexMeta
}
