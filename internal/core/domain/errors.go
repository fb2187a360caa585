package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Ingestion Errors.

	// ErrUnreadableFile indicates a source file could not be decoded at all.
	ErrUnreadableFile = errors.New("unreadable source file")

	// ErrMissingCoordinates indicates a record lacks latitude or longitude.
	// The whole record is rejected; no partial profile is emitted.
	ErrMissingCoordinates = errors.New("missing coordinates")

	// ErrInvalidCoordinates indicates coordinates outside [-90,90] / [-180,180].
	ErrInvalidCoordinates = errors.New("coordinates out of range")

	// ErrInvalidInstrumentID indicates the platform number is not a positive integer.
	ErrInvalidInstrumentID = errors.New("invalid instrument id")

	// ErrEmptyProfile indicates no usable measurements remain after alignment.
	// This is a data-quality skip, not a pipeline failure.
	ErrEmptyProfile = errors.New("empty profile")

	// ErrStoreUnavailable indicates the profile store could not be reached.
	ErrStoreUnavailable = errors.New("profile store unavailable")

	// Index Errors.

	// ErrIndexNotFound indicates no published index artifacts exist.
	ErrIndexNotFound = errors.New("index artifacts not found")

	// ErrIndexCorrupt indicates the index and its id mapping disagree or fail to decode.
	ErrIndexCorrupt = errors.New("index artifacts corrupt")

	// ErrModelMismatch indicates the index was built with a different embedding model.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrNoDocuments indicates there were no floats to index.
	ErrNoDocuments = errors.New("no documents to index")

	// AI Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	// Answers fall back to deterministic templates.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Scheduler Errors.

	// ErrUnknownTask indicates a scheduler task ID that has no handler.
	ErrUnknownTask = errors.New("unknown task")
)

// ParseError describes why a source file or one of its records was rejected.
type ParseError struct {
	// File is the source file name.
	File string

	// Reason is a short human-readable explanation.
	Reason string

	// Err is the underlying sentinel or decoding error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.File, e.Reason, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IndexInitError is returned when the vector search service cannot start.
// Callers decide whether to abort the process.
type IndexInitError struct {
	// Dir is the artifact directory that was inspected.
	Dir string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *IndexInitError) Error() string {
	return fmt.Sprintf("initialising vector search from %s: %v", e.Dir, e.Err)
}

// Unwrap returns the underlying error.
func (e *IndexInitError) Unwrap() error {
	return e.Err
}
