package mcp

import (
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers questions from the profile database.
	Retrieval driving.RetrievalService

	// Router classifies questions into data queries.
	Router driving.QueryRouter

	// Floats exposes per-float data. Optional.
	Floats driving.FloatService

	// Search finds floats by semantic similarity. Optional: nil when no index is built.
	Search driving.VectorSearchService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Router == nil {
		return ErrMissingRouter
	}
	return nil
}
