package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// Ensure VectorSearchService implements the interface.
var _ driving.VectorSearchService = (*VectorSearchService)(nil)

// VectorSearchService resolves free text to float ids by nearest-neighbour
// search over one loaded index generation. The loaded index is never
// mutated, so a single instance serves any number of concurrent readers.
// A rebuilt index is picked up by constructing a new service.
type VectorSearchService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	mapping  []int64
	meta     domain.IndexMeta
}

// NewVectorSearchService loads the active index generation once.
// Every failure is a *domain.IndexInitError; callers decide whether
// running without semantic search is acceptable.
func NewVectorSearchService(
	ctx context.Context,
	embedder driven.EmbeddingService,
	artifacts driven.IndexArtifactStore,
	newIndex driven.VectorIndexFactory,
) (*VectorSearchService, error) {
	initErr := func(err error) error {
		return &domain.IndexInitError{Dir: artifacts.Dir(), Err: err}
	}

	if embedder == nil {
		return nil, initErr(domain.ErrEmbeddingUnavailable)
	}

	snapshot, err := artifacts.Open(ctx)
	if err != nil {
		return nil, initErr(err)
	}

	meta := snapshot.Meta
	if meta.Model != embedder.ModelName() || meta.Dimensions != embedder.Dimensions() {
		return nil, initErr(fmt.Errorf("%w: index built with %s (%d dimensions), embedder is %s (%d dimensions)",
			domain.ErrModelMismatch, meta.Model, meta.Dimensions, embedder.ModelName(), embedder.Dimensions()))
	}

	index := newIndex(meta.Dimensions)
	for _, v := range snapshot.Vectors {
		if _, err := index.Add(ctx, v); err != nil {
			index.Close()
			return nil, initErr(fmt.Errorf("loading vectors: %w", err))
		}
	}
	if index.Size() != len(snapshot.Mapping) {
		index.Close()
		return nil, initErr(fmt.Errorf("%w: index holds %d vectors, mapping has %d rows",
			domain.ErrIndexCorrupt, index.Size(), len(snapshot.Mapping)))
	}

	logger.Debug("vector search ready", "generation", meta.Generation, "count", meta.Count, "model", meta.Model)
	return &VectorSearchService{
		embedder: embedder,
		index:    index,
		mapping:  snapshot.Mapping,
		meta:     meta,
	}, nil
}

// Search returns up to k float ids, nearest first. It never fails: a nil
// service, k <= 0 or an embedding error yield an empty result.
func (s *VectorSearchService) Search(ctx context.Context, query string, k int) []int64 {
	matches := s.Nearest(ctx, query, k)
	if len(matches) == 0 {
		return nil
	}
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.InstrumentID
	}
	return ids
}

// Nearest is Search with squared L2 distances.
func (s *VectorSearchService) Nearest(ctx context.Context, query string, k int) []domain.FloatMatch {
	if s == nil || k <= 0 {
		return nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("vector search embedding failed", "error", err)
		return nil
	}

	hits, err := s.index.Search(ctx, vec, k)
	if err != nil {
		logger.Warn("vector search failed", "error", err)
		return nil
	}

	out := make([]domain.FloatMatch, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(s.mapping) {
			continue
		}
		out = append(out, domain.FloatMatch{InstrumentID: s.mapping[h.Position], Distance: h.Distance})
	}
	return out
}

// Meta describes the loaded generation. A nil service returns zero metadata.
func (s *VectorSearchService) Meta() domain.IndexMeta {
	if s == nil {
		return domain.IndexMeta{}
	}
	return s.meta
}

// Close releases the in-memory index.
func (s *VectorSearchService) Close() error {
	if s == nil {
		return nil
	}
	return s.index.Close()
}
