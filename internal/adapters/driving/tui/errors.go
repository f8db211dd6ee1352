package tui

import "errors"

var (
	// ErrMissingIndexService is returned when the index service port is nil.
	ErrMissingIndexService = errors.New("index service is required")

	// ErrMissingLibraryService is returned when the library service port is nil.
	ErrMissingLibraryService = errors.New("library service is required")
)
