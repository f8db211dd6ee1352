package mcp

import (
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Index provides keyword and semantic search over indexed documents.
	Index driving.IndexService

	// Chat answers questions grounded in indexed documents.
	Chat driving.ChatService

	// Library manages the files in the documents folder.
	Library driving.LibraryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Index == nil {
		return ErrMissingIndexService
	}
	// Chat and Library are optional; their tools and resources degrade.
	return nil
}
