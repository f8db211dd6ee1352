// Package filesystem provides the docs-folder document source: file
// enumeration, text extraction dispatch, chunking and upload management.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/refchat/internal/chunker"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.DocumentSource = (*Source)(nil)
	_ driven.FileStore      = (*Source)(nil)
)

// DefaultMaxUploadBytes caps uploads at 50 MiB.
const DefaultMaxUploadBytes = 50 << 20

// unsafeFilenameChars are stripped from uploaded filenames.
var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Source is a filesystem-backed document source rooted at a single folder.
// It is stateless: every call reads the folder as it currently is.
type Source struct {
	root           string
	splitter       *chunker.Chunker
	extractors     map[string]driven.Extractor
	maxUploadBytes int64
}

// Option configures the source.
type Option func(*Source)

// WithMaxUploadBytes sets the upload size limit.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// New creates a document source for the given folder. Extractors register
// themselves by extension; files with other extensions are not eligible.
func New(root string, splitter *chunker.Chunker, extractors []driven.Extractor, opts ...Option) *Source {
	s := &Source{
		root:           root,
		splitter:       splitter,
		extractors:     make(map[string]driven.Extractor),
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			s.extractors[strings.ToLower(ext)] = e
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the folder this source reads from.
func (s *Source) Root() string {
	return s.root
}

// Supported reports whether an extractor is registered for the filename's
// extension.
func (s *Source) Supported(filename string) bool {
	_, ok := s.extractors[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ListFiles enumerates eligible files in the folder in name order.
// A missing folder is reported as domain.ErrNotFound.
func (s *Source) ListFiles(_ context.Context) ([]domain.FileRef, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("docs folder %s: %w", s.root, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read docs folder: %w", err)
	}

	var files []domain.FileRef
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !s.Supported(entry.Name()) {
			continue
		}
		files = append(files, domain.FileRef{
			Path: filepath.Join(s.root, entry.Name()),
			Name: entry.Name(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ExtractText dispatches to the extractor registered for the file type.
func (s *Source) ExtractText(ctx context.Context, file domain.FileRef) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Name))
	extractor, ok := s.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, ext)
	}
	return extractor.Extract(ctx, file.Path)
}

// SplitChunks splits cleaned text into ordered chunk strings.
func (s *Source) SplitChunks(text string) []string {
	return s.splitter.Split(text)
}

// SaveFile validates and writes an uploaded file into the folder,
// sanitising the filename. Existing files are overwritten.
func (s *Source) SaveFile(filename string, content []byte) (domain.FileRef, int64, error) {
	if strings.TrimSpace(filename) == "" {
		return domain.FileRef{}, 0, fmt.Errorf("%w: empty filename", domain.ErrInvalidInput)
	}
	if !s.Supported(filename) {
		return domain.FileRef{}, 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(filename))
	}
	if int64(len(content)) > s.maxUploadBytes {
		return domain.FileRef{}, 0, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, s.maxUploadBytes)
	}

	safe := sanitiseFilename(filename)
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return domain.FileRef{}, 0, fmt.Errorf("create docs folder: %w", err)
	}

	path := filepath.Join(s.root, safe)
	if _, err := os.Stat(path); err == nil {
		logger.Warn("File %s already exists, overwriting", safe)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return domain.FileRef{}, 0, fmt.Errorf("write %s: %w", safe, err)
	}

	logger.Info("Saved file %s (%d bytes)", safe, len(content))
	return domain.FileRef{Path: path, Name: safe}, int64(len(content)), nil
}

// DeleteFile removes the named file from the folder.
func (s *Source) DeleteFile(filename string) error {
	path := filepath.Join(s.root, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", filename, domain.ErrNotFound)
		}
		return fmt.Errorf("stat %s: %w", filename, err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete %s: %w", filename, err)
	}
	logger.Info("Deleted file %s", filename)
	return nil
}

// StatFile returns the file reference, size and modification time of a
// file in the folder.
func (s *Source) StatFile(filename string) (domain.FileRef, int64, time.Time, error) {
	path := filepath.Join(s.root, filepath.Base(filename))
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.FileRef{}, 0, time.Time{}, fmt.Errorf("%s: %w", filename, domain.ErrNotFound)
		}
		return domain.FileRef{}, 0, time.Time{}, fmt.Errorf("stat %s: %w", filename, err)
	}
	if info.IsDir() {
		return domain.FileRef{}, 0, time.Time{}, fmt.Errorf("%s: %w", filename, domain.ErrNotFound)
	}
	return domain.FileRef{Path: path, Name: info.Name()}, info.Size(), info.ModTime(), nil
}

// sanitiseFilename strips path separators and shell-unfriendly characters
// and caps the name at 255 bytes, preserving the extension.
func sanitiseFilename(filename string) string {
	safe := unsafeFilenameChars.ReplaceAllString(filepath.Base(filename), "_")
	if len(safe) > 255 {
		ext := filepath.Ext(safe)
		stem := strings.TrimSuffix(safe, ext)
		if len(stem) > 200 {
			stem = stem[:200]
		}
		safe = stem + ext
	}
	return safe
}
