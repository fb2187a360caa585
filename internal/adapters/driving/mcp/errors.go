// Package mcp provides an MCP (Model Context Protocol) server adapter for OceanAI.
// It lets AI assistants query ARGO float data through tools and resources.
package mcp

import "errors"

var (
	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

	// ErrMissingRouter is returned when the query router is not provided.
	ErrMissingRouter = errors.New("mcp: query router is required")
)
