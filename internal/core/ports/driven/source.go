package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// DocumentSource supplies files eligible for indexing together with their
// extracted text and chunked representation. The source is stateless; the
// indexer owns all index state.
type DocumentSource interface {
	// ListFiles enumerates files eligible for indexing, filtered by the
	// supported extension allowlist. A missing root is reported as an error
	// wrapping domain.ErrNotFound.
	ListFiles(ctx context.Context) ([]domain.FileRef, error)

	// ExtractText returns the full text of the file. Unsupported types
	// return an error wrapping domain.ErrUnsupportedType; unreadable or
	// corrupt files return the underlying extraction error.
	ExtractText(ctx context.Context, file domain.FileRef) (string, error)

	// SplitChunks splits cleaned text into ordered chunk strings.
	SplitChunks(text string) []string
}

// FileStore persists raw files in the documents folder. Implemented by the
// filesystem source; split out so the library service can be tested against
// a fake store.
type FileStore interface {
	// SaveFile validates and writes an uploaded file, sanitising its name.
	// Returns the stored reference and the size in bytes.
	SaveFile(filename string, content []byte) (domain.FileRef, int64, error)

	// DeleteFile removes the named file, or returns domain.ErrNotFound.
	DeleteFile(filename string) error

	// StatFile returns the reference, size and modification time of a file.
	StatFile(filename string) (domain.FileRef, int64, time.Time, error)
}

// Extractor converts one supported file type to plain text.
type Extractor interface {
	// Extensions returns the lowercase file extensions this extractor
	// handles, including the leading dot.
	Extensions() []string

	// Extract returns the text content of the file at path.
	Extract(ctx context.Context, path string) (string, error)
}

// CommandRunner executes an external command and returns its stdout.
// It exists so extractors that shell out (pdftotext) can be tested
// without the binary installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
