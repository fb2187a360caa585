// Package tui provides an interactive terminal console for asking questions
// and searching floats. It is a driving adapter like the CLI and MCP server.
package tui

import (
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Retrieval answers questions. Required.
	Retrieval driving.RetrievalService

	// Search finds similar floats. Nil until an index has been built.
	Search driving.VectorSearchService

	// Floats lists profiles and statistics. Optional.
	Floats driving.FloatService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
