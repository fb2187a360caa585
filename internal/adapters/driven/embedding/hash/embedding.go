// Package hash provides a deterministic, offline embedding service.
//
// Text is split into lower-cased word tokens and each token is hashed with
// FNV-1a into one of the vector's buckets with a hash-derived sign. The
// result is L2-normalised, so texts that share rare tokens such as platform
// numbers land close together. The same text always yields the same vector,
// which makes indexes reproducible without a model download.
package hash

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = 384

// ModelPrefix is prepended to the dimension count to form the model name.
const ModelPrefix = "hash-fnv-"

// EmbeddingService is a feature-hashing embedder.
type EmbeddingService struct {
	dims  int
	model string
}

// NewEmbeddingService creates an embedder producing vectors of the given size.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		dims:  dimensions,
		model: fmt.Sprintf("%s%d", ModelPrefix, dimensions),
	}
}

// Embed hashes the tokens of text into a unit vector.
// Text without tokens yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, s.dims)
	for _, tok := range Tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()

		bucket := sum % uint64(s.dims)
		if sum>>63 == 1 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dims
}

// ModelName returns hash-fnv-<dimensions>.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// Tokenize splits text into lower-cased tokens of letters, digits, '.' and '-'.
// Dots at either end of a token are dropped, so "1902672." and "1902672" match.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '-'
	})

	tokens := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "."); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
