package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// Default index build settings.
const (
	DefaultEmbedBatchSize   = 32
	DefaultEmbedConcurrency = 4
)

// IndexConfig tunes embedding during a build.
type IndexConfig struct {
	// RateLimit caps embedding requests per second. Zero means unlimited.
	RateLimit float64

	// Concurrency bounds in-flight embedding requests.
	Concurrency int

	// BatchSize is the number of documents per embedding request.
	BatchSize int
}

// IndexService builds the float embedding index offline and publishes it
// as a new artifact generation.
type IndexService struct {
	queries   driven.ProfileQueries
	embedder  driven.EmbeddingService
	artifacts driven.IndexArtifactStore
	cfg       IndexConfig
}

// NewIndexService creates an index builder. embedder may be nil, in which
// case Build fails with domain.ErrEmbeddingUnavailable.
func NewIndexService(
	queries driven.ProfileQueries,
	embedder driven.EmbeddingService,
	artifacts driven.IndexArtifactStore,
	cfg IndexConfig,
) *IndexService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultEmbedConcurrency
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEmbedBatchSize
	}
	return &IndexService{
		queries:   queries,
		embedder:  embedder,
		artifacts: artifacts,
		cfg:       cfg,
	}
}

// Build embeds one document per float and publishes the snapshot.
func (s *IndexService) Build(ctx context.Context) (domain.IndexMeta, error) {
	if s.embedder == nil {
		return domain.IndexMeta{}, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Index build")

	positions, err := s.queries.LatestPositions(ctx)
	if err != nil {
		return domain.IndexMeta{}, fmt.Errorf("load float positions: %w", err)
	}
	if len(positions) == 0 {
		return domain.IndexMeta{}, domain.ErrNoDocuments
	}

	docs := make([]domain.EmbeddingDocument, len(positions))
	for i, pos := range positions {
		docs[i] = domain.EmbeddingDocument{
			InstrumentID: pos.InstrumentID,
			Text:         domain.FloatDocumentText(pos),
		}
	}

	if err := s.embed(ctx, docs); err != nil {
		return domain.IndexMeta{}, err
	}

	dims := s.embedder.Dimensions()
	snapshot := &domain.IndexSnapshot{
		Meta: domain.IndexMeta{
			Model:      s.embedder.ModelName(),
			Dimensions: dims,
			Count:      len(docs),
		},
		Vectors: make([][]float32, len(docs)),
		Mapping: make([]int64, len(docs)),
	}
	for i, doc := range docs {
		if len(doc.Vector) != dims {
			return domain.IndexMeta{}, fmt.Errorf("%w: float %d embedded to %d dimensions, model %s declares %d",
				domain.ErrModelMismatch, doc.InstrumentID, len(doc.Vector), snapshot.Meta.Model, dims)
		}
		snapshot.Vectors[i] = doc.Vector
		snapshot.Mapping[i] = doc.InstrumentID
	}

	meta, err := s.artifacts.Publish(ctx, snapshot)
	if err != nil {
		return domain.IndexMeta{}, fmt.Errorf("publish index: %w", err)
	}

	logger.Info("index built",
		"generation", meta.Generation,
		"model", meta.Model,
		"dimensions", meta.Dimensions,
		"count", meta.Count)
	return meta, nil
}

// embed fills docs[i].Vector, batching requests under the rate limit with
// bounded concurrency. Each batch writes only its own slice of docs.
func (s *IndexService) embed(ctx context.Context, docs []domain.EmbeddingDocument) error {
	limit := rate.Inf
	if s.cfg.RateLimit > 0 {
		limit = rate.Limit(s.cfg.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for start := 0; start < len(docs); start += s.cfg.BatchSize {
		batch := docs[start:min(start+s.cfg.BatchSize, len(docs))]
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Text
			}
			vectors, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embedding returned %d vectors for %d documents", len(vectors), len(batch))
			}
			for i := range batch {
				batch[i].Vector = vectors[i]
			}
			logger.Debug("embedded batch", "first_float", batch[0].InstrumentID, "size", len(batch))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	return nil
}

// Status returns the active generation's metadata.
func (s *IndexService) Status(ctx context.Context) (domain.IndexMeta, error) {
	return s.artifacts.Active(ctx)
}
