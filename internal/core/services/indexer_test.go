package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/storage/artifact"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

func floatPositions(n int) []domain.FloatPosition {
	out := make([]domain.FloatPosition, n)
	for i := range out {
		out[i] = domain.FloatPosition{
			InstrumentID: int64(1900000 + i),
			Latitude:     float64(i%90) - 45,
			Longitude:    float64(i%180) - 90,
			Timestamp:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func newArtifactStore(t *testing.T) *artifact.Store {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestIndexService_Build(t *testing.T) {
	positions := floatPositions(70)
	queries := &mockQueries{positions: positions}
	embedder := newMockEmbeddingService(4)
	for i, pos := range positions {
		embedder.vectors[domain.FloatDocumentText(pos)] = []float32{float32(i), 1, 2, 3}
	}
	artifacts := newArtifactStore(t)

	svc := NewIndexService(queries, embedder, artifacts, IndexConfig{Concurrency: 3, BatchSize: 32})
	meta, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 70, meta.Count)
	assert.Equal(t, 4, meta.Dimensions)
	assert.Equal(t, "mock-embed", meta.Model)
	assert.NotEmpty(t, meta.Generation)
	assert.Equal(t, 70, embedder.Calls())

	snapshot, err := artifacts.Open(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Mapping, 70)
	for i, pos := range positions {
		assert.Equal(t, pos.InstrumentID, snapshot.Mapping[i])
		assert.Equal(t, float32(i), snapshot.Vectors[i][0], "vector %d out of order", i)
	}

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, meta.Generation, status.Generation)
}

func TestIndexService_RateLimited(t *testing.T) {
	queries := &mockQueries{positions: floatPositions(3)}
	svc := NewIndexService(queries, newMockEmbeddingService(2), newArtifactStore(t),
		IndexConfig{RateLimit: 1000, BatchSize: 1})

	meta, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Count)
}

func TestIndexService_NoDocuments(t *testing.T) {
	svc := NewIndexService(&mockQueries{}, newMockEmbeddingService(2), newArtifactStore(t), IndexConfig{})

	_, err := svc.Build(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestIndexService_NoEmbedder(t *testing.T) {
	svc := NewIndexService(&mockQueries{positions: floatPositions(1)}, nil, newArtifactStore(t), IndexConfig{})

	_, err := svc.Build(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIndexService_QueryFailure(t *testing.T) {
	svc := NewIndexService(&mockQueries{err: domain.ErrStoreUnavailable}, newMockEmbeddingService(2),
		newArtifactStore(t), IndexConfig{})

	_, err := svc.Build(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestIndexService_EmbeddingFailure(t *testing.T) {
	embedder := newMockEmbeddingService(2)
	embedder.err = errors.New("connection refused")
	artifacts := newArtifactStore(t)
	svc := NewIndexService(&mockQueries{positions: floatPositions(5)}, embedder, artifacts, IndexConfig{})

	_, err := svc.Build(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err = artifacts.Active(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestIndexService_DimensionMismatch(t *testing.T) {
	positions := floatPositions(2)
	embedder := newMockEmbeddingService(3)
	embedder.vectors[domain.FloatDocumentText(positions[1])] = []float32{1, 2}
	svc := NewIndexService(&mockQueries{positions: positions}, embedder, newArtifactStore(t), IndexConfig{})

	_, err := svc.Build(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestIndexService_StatusBeforeBuild(t *testing.T) {
	svc := NewIndexService(&mockQueries{}, newMockEmbeddingService(2), newArtifactStore(t), IndexConfig{})

	_, err := svc.Status(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}
