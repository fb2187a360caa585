package hash

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func dist(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum
}

func TestNewEmbeddingService(t *testing.T) {
	s := NewEmbeddingService(0)
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, "hash-fnv-384", s.ModelName())

	small := NewEmbeddingService(16)
	assert.Equal(t, "hash-fnv-16", small.ModelName())
	assert.NoError(t, small.Ping(context.Background()))
	assert.NoError(t, small.Close())
}

func TestEmbed_DeterministicUnitVector(t *testing.T) {
	s := NewEmbeddingService(64)
	ctx := context.Background()

	a, err := s.Embed(ctx, "ARGO float with platform ID 1902672.")
	require.NoError(t, err)
	b, err := NewEmbeddingService(64).Embed(ctx, "argo FLOAT with platform id 1902672")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, norm(a), 1e-6)
	assert.Equal(t, a, b)
}

func TestEmbed_EmptyText(t *testing.T) {
	v, err := NewEmbeddingService(8).Embed(context.Background(), " ,;! ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), v)
}

func TestEmbed_SharedRareTokenIsNearer(t *testing.T) {
	s := NewEmbeddingService(384)
	ctx := context.Background()

	docs, err := s.EmbedBatch(ctx, []string{
		"ARGO float with platform ID 1902672. Last known position at latitude -10.00, longitude 70.00.",
		"ARGO float with platform ID 5904. Last known position at latitude 12.00, longitude -40.00.",
	})
	require.NoError(t, err)

	q, err := s.Embed(ctx, "where is float 1902672")
	require.NoError(t, err)
	assert.Less(t, dist(q, docs[0]), dist(q, docs[1]))
}

func TestEmbedBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddingService(8).EmbedBatch(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"argo", "float", "1902672", "latitude", "-10.00", "longitude", "70.00"},
		Tokenize("ARGO float 1902672. latitude -10.00, longitude 70.00."))
	assert.Empty(t, Tokenize("... !!"))
}
