package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/logger"
)

// Ensure Library implements the interface.
var _ driving.LibraryService = (*Library)(nil)

// Library manages the files in the documents folder: uploads, listing,
// inspection and deletion. It reads the folder as it currently is and
// keeps no state; index consistency is the caller's concern.
type Library struct {
	source driven.DocumentSource
	store  driven.FileStore
}

// NewLibrary creates a library service over a document source and its
// backing file store.
func NewLibrary(source driven.DocumentSource, store driven.FileStore) *Library {
	return &Library{source: source, store: store}
}

// SaveUpload validates and writes an uploaded file into the folder.
func (l *Library) SaveUpload(filename string, content []byte) (domain.FileRef, int64, error) {
	return l.store.SaveFile(filename, content)
}

// ListDocuments returns detailed information for every eligible file.
// Files whose details cannot be gathered are skipped.
func (l *Library) ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error) {
	files, err := l.source.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]domain.DocumentInfo, 0, len(files))
	for _, file := range files {
		info, err := l.DocumentInfo(ctx, file.Name)
		if err != nil {
			logger.Warn("Skipping %s in listing: %v", file.Name, err)
			continue
		}
		infos = append(infos, *info)
	}

	logger.Debug("Listed %d documents with details", len(infos))
	return infos, nil
}

// DocumentInfo returns details for one file. Extraction failures do not
// fail the call: chunk count is reported as 0 and character count as -1.
func (l *Library) DocumentInfo(ctx context.Context, filename string) (*domain.DocumentInfo, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: empty filename", domain.ErrInvalidInput)
	}

	ref, size, modTime, err := l.store.StatFile(filename)
	if err != nil {
		return nil, err
	}

	info := &domain.DocumentInfo{
		Filename:   ref.Name,
		FileSize:   size,
		FileType:   strings.ToLower(filepath.Ext(ref.Name)),
		UploadDate: modTime,
	}

	text, err := l.source.ExtractText(ctx, ref)
	if err != nil {
		logger.Warn("Failed to analyze content for %s: %v", ref.Name, err)
		info.CharacterCount = -1
		return info, nil
	}

	cleaned := domain.CleanText(text)
	info.CharacterCount = len(cleaned)
	info.ChunksCount = len(l.source.SplitChunks(cleaned))
	return info, nil
}

// DocumentContent returns the extracted, cleaned text of one file.
func (l *Library) DocumentContent(ctx context.Context, filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", fmt.Errorf("%w: empty filename", domain.ErrInvalidInput)
	}

	ref, _, _, err := l.store.StatFile(filename)
	if err != nil {
		return "", err
	}

	text, err := l.source.ExtractText(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", ref.Name, err)
	}
	return domain.CleanText(text), nil
}

// DocumentChunks returns the chunked representation of one file's current
// content. This reflects what indexing the file now would produce, not
// what the index currently holds.
func (l *Library) DocumentChunks(ctx context.Context, filename string) ([]domain.SourceChunk, error) {
	content, err := l.DocumentContent(ctx, filename)
	if err != nil {
		return nil, err
	}

	pieces := l.source.SplitChunks(content)
	chunks := make([]domain.SourceChunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.SourceChunk{
			ChunkIndex:     i,
			Text:           piece,
			WordCount:      len(strings.Fields(piece)),
			CharacterCount: len(piece),
		})
	}
	return chunks, nil
}

// DeleteDocument removes the file from the folder.
func (l *Library) DeleteDocument(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("%w: empty filename", domain.ErrInvalidInput)
	}
	return l.store.DeleteFile(filename)
}
