package driving

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// IndexService exposes the in-memory document index to external actors.
type IndexService interface {
	// Rebuild clears the index and repopulates it from the document source.
	// Per-file failures are logged and skipped; a missing source folder
	// yields (0, 0) without error.
	Rebuild(ctx context.Context) (docsProcessed, chunksCreated int, err error)

	// AddDocument indexes a single file without touching existing entries.
	// It fails loudly on unsupported types, extraction failures, empty
	// content and embedding failures so callers can fall back to Rebuild.
	AddDocument(ctx context.Context, file domain.FileRef) (chunksCreated int, err error)

	// RemoveDocument removes every chunk whose filename matches, along with
	// the documents those chunks referenced. Returns 0 when nothing matched.
	RemoveDocument(filename string) (chunksRemoved int)

	// KeywordSearch returns chunks containing the query as a substring,
	// in insertion order. An empty query returns an empty list.
	KeywordSearch(query string, caseSensitive bool) []domain.KeywordResult

	// SemanticSearch ranks all chunks by cosine similarity to the query
	// embedding and returns the top k. An empty query returns an empty list.
	SemanticSearch(ctx context.Context, query string, topK int) ([]domain.SemanticResult, error)

	// Stats reports index counts and embedding dimensionality.
	Stats() domain.IndexStats

	// DocumentChunks returns the indexed chunks for a filename sorted by
	// chunk index, annotated for diagnostics.
	DocumentChunks(filename string) []domain.ChunkDetail
}

// ChatService answers questions grounded in indexed documents.
type ChatService interface {
	// Ask retrieves the top matching chunks for the question and generates
	// an answer with citations from the local language model.
	Ask(ctx context.Context, question string, topK int) (*domain.Answer, error)

	// Healthy reports whether the answer generator is reachable.
	Healthy(ctx context.Context) bool
}

// LibraryService manages the files in the documents folder.
type LibraryService interface {
	// SaveUpload validates and writes an uploaded file into the folder.
	// Returns the stored file reference and size in bytes.
	SaveUpload(filename string, content []byte) (domain.FileRef, int64, error)

	// ListDocuments returns detailed information for every eligible file.
	ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error)

	// DocumentInfo returns details for one file, or domain.ErrNotFound.
	DocumentInfo(ctx context.Context, filename string) (*domain.DocumentInfo, error)

	// DocumentContent returns the extracted text of one file.
	DocumentContent(ctx context.Context, filename string) (string, error)

	// DocumentChunks returns the chunked representation of one file's
	// current content, independent of the index.
	DocumentChunks(ctx context.Context, filename string) ([]domain.SourceChunk, error)

	// DeleteDocument removes the file from the folder.
	DeleteDocument(filename string) error
}
