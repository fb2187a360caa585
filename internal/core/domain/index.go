package domain

import (
	"fmt"
	"time"
)

// EmbeddingDocument is the descriptive text and vector for one float.
type EmbeddingDocument struct {
	// InstrumentID is the float the document describes.
	InstrumentID int64

	// Text is the document content that was embedded.
	Text string

	// Vector is the embedding of Text.
	Vector []float32
}

// FloatDocumentText builds the descriptive text for a float's latest position.
func FloatDocumentText(pos FloatPosition) string {
	return fmt.Sprintf(
		"ARGO float with platform ID %d. Last known position at latitude %.2f, longitude %.2f.",
		pos.InstrumentID, pos.Latitude, pos.Longitude,
	)
}

// IndexMeta describes a published index generation.
type IndexMeta struct {
	// Generation is the unique name of the artifact pair.
	Generation string `json:"generation"`

	// Model is the embedding model identifier used at build time.
	Model string `json:"model"`

	// Dimensions is the vector length.
	Dimensions int `json:"dimensions"`

	// Count is the number of indexed vectors.
	Count int `json:"count"`

	// BuiltAt is when the generation was published.
	BuiltAt time.Time `json:"built_at"`
}

// IndexSnapshot is an index and its id mapping, activated as a unit.
// Position i of Vectors corresponds to Mapping[i].
type IndexSnapshot struct {
	// Meta describes the generation.
	Meta IndexMeta

	// Vectors holds one embedding per indexed float, in insertion order.
	Vectors [][]float32

	// Mapping holds the instrument id for each vector position.
	Mapping []int64
}

// Validate checks that the index and mapping agree.
func (s *IndexSnapshot) Validate() error {
	if len(s.Vectors) != len(s.Mapping) || len(s.Mapping) != s.Meta.Count {
		return fmt.Errorf("%w: %d vectors, %d mapping rows, header count %d",
			ErrIndexCorrupt, len(s.Vectors), len(s.Mapping), s.Meta.Count)
	}
	for i, v := range s.Vectors {
		if len(v) != s.Meta.Dimensions {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d",
				ErrIndexCorrupt, i, len(v), s.Meta.Dimensions)
		}
	}
	return nil
}

// FloatMatch is one nearest-neighbour search hit.
type FloatMatch struct {
	// InstrumentID is the matched float.
	InstrumentID int64 `json:"float_id"`

	// Distance is the squared Euclidean distance to the query vector.
	Distance float32 `json:"distance"`
}
