package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	return s
}

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorContains(t, err, "API key is required")
}

func TestNewEmbeddingService_Dimensions(t *testing.T) {
	tests := []struct {
		model string
		dims  int
		want  int
	}{
		{"", 0, 1536},
		{"text-embedding-3-large", 0, 3072},
		{"text-embedding-3-small", 512, 512},
		{"custom-model", 0, 1536},
	}
	for _, tt := range tests {
		s, err := NewEmbeddingService(Config{APIKey: "k", Model: tt.model, Dimensions: tt.dims})
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.Dimensions(), tt.model)
	}
}

func TestEmbeddingService_EmbedBatchOrdersByIndex(t *testing.T) {
	var req map[string]any
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0.5,0.5]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		]}`))
	})

	vectors, err := s.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0.5, 0.5}}, vectors)
	assert.Equal(t, "text-embedding-3-small", req["model"])
	assert.NotContains(t, req, "dimensions")
}

func TestEmbeddingService_MissingEmbedding(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	})

	_, err := s.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "no embedding returned for text 1")
}

func TestEmbeddingService_APIError(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := s.Embed(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestEmbeddingService_EmbedBatchEmpty(t *testing.T) {
	s, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)

	vectors, err := s.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbeddingService_Ping(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	})

	assert.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.NoError(t, s.Close())
}
