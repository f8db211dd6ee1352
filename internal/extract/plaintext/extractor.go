// Package plaintext extracts text from .txt files with a permissive
// decoding strategy: UTF-8 (with BOM stripping) when valid, Latin-1
// transcoding otherwise.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// utf8BOM is the byte order mark some editors prepend to UTF-8 files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor reads plain text files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".txt"}
}

// Extract reads the file and decodes it to a string.
func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text := decode(raw)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("extract %s: %w", path, domain.ErrEmptyDocument)
	}
	return text, nil
}

// decode converts raw bytes to a string, preferring UTF-8 and falling back
// to Latin-1, which accepts any byte sequence.
func decode(raw []byte) string {
	if len(raw) >= len(utf8BOM) && raw[0] == utf8BOM[0] && raw[1] == utf8BOM[1] && raw[2] == utf8BOM[2] {
		raw = raw[len(utf8BOM):]
	}

	if utf8.Valid(raw) {
		return string(raw)
	}

	// Latin-1: each byte maps directly to the code point of the same value.
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}
