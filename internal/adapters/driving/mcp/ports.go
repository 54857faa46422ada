package mcp

import (
	"github.com/normsearch/normsearch-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers questions against the current corpus snapshot.
	Retrieval driving.RetrievalService

	// Ingest rebuilds the corpus. Optional; without it the rebuild tool is
	// not registered.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
