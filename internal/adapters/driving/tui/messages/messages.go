// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/refchat/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewAsk is the question answering view.
	ViewAsk
	// ViewDocuments lists the files in the documents folder.
	ViewDocuments
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewAsk:
		return "ask"
	case ViewDocuments:
		return "documents"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// SearchCompleted carries search results back to the model.
// Exactly one of Keyword or Ranked is populated, depending on Semantic.
type SearchCompleted struct {
	Query    string
	Semantic bool
	Keyword  []domain.KeywordResult
	Ranked   []domain.SemanticResult
	Err      error
}

// AskCompleted carries a generated answer back to the model.
type AskCompleted struct {
	Answer *domain.Answer
	Err    error
}

// DocumentsLoaded carries the document listing from the library service.
type DocumentsLoaded struct {
	Documents []domain.DocumentInfo
	Err       error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
