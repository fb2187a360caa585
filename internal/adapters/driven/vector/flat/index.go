// Package flat provides an exact nearest-neighbour index that compares the
// query against every stored vector by squared Euclidean distance.
package flat

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a brute-force L2 index. Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	dims    int
	vectors [][]float32
}

// New creates an empty index for vectors of the given length.
func New(dimensions int) *Index {
	return &Index{dims: dimensions}
}

// Factory matches driven.VectorIndexFactory.
func Factory(dimensions int) driven.VectorIndex {
	return New(dimensions)
}

// Add appends a copy of embedding and returns its position.
func (idx *Index) Add(ctx context.Context, embedding []float32) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(embedding) != idx.dims {
		return 0, fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(embedding), idx.dims)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = append(idx.vectors, slices.Clone(embedding))
	return len(idx.vectors) - 1, nil
}

// Search returns the k nearest vectors. Equal distances keep insertion order.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(query), idx.dims)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	hits := make([]driven.VectorHit, len(idx.vectors))
	for i, v := range idx.vectors {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				idx.mu.RUnlock()
				return nil, err
			}
		}
		hits[i] = driven.VectorHit{Position: i, Distance: squaredL2(query, v)}
	}
	idx.mu.RUnlock()

	slices.SortStableFunc(hits, func(a, b driven.VectorHit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Size returns the number of stored vectors.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Dimensions returns the accepted vector length.
func (idx *Index) Dimensions() int {
	return idx.dims
}

// Close drops the stored vectors.
func (idx *Index) Close() error {
	idx.mu.Lock()
	idx.vectors = nil
	idx.mu.Unlock()
	return nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
