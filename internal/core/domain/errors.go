package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no extractor handles.
	// Raised by AddDocument; rebuild skips such files silently.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrEmptyDocument indicates extraction produced no usable text.
	ErrEmptyDocument = errors.New("document has no text content")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrAnswerUnavailable indicates the answer generator is not configured
	// or unreachable. The chat endpoint is disabled without it.
	ErrAnswerUnavailable = errors.New("answer generator unavailable")
)
