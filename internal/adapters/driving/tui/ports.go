// Package tui provides an interactive terminal user interface for refchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Index provides keyword and semantic search over indexed documents.
	Index driving.IndexService

	// Chat answers questions grounded in the index. Optional; when nil
	// the ask view reports that chat is unavailable.
	Chat driving.ChatService

	// Library manages the files in the documents folder.
	Library driving.LibraryService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(index driving.IndexService, chat driving.ChatService, library driving.LibraryService) *Ports {
	return &Ports{
		Index:   index,
		Chat:    chat,
		Library: library,
	}
}

// Validate ensures all required ports are set.
// Returns an error if a required port is nil.
func (p *Ports) Validate() error {
	if p.Index == nil {
		return ErrMissingIndexService
	}
	if p.Library == nil {
		return ErrMissingLibraryService
	}
	return nil
}
