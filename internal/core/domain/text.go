package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSnippetLength is the preview length used for search results.
const DefaultSnippetLength = 250

// CleanText normalises text for indexing and search: non-breaking spaces
// become regular spaces and runs of whitespace collapse to single spaces.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.Join(strings.Fields(text), " ")
}

// FormatSnippet truncates a snippet to maxLength characters and appends an
// ellipsis marker when the text was cut. Length is counted in runes, never
// bytes, so multi-byte text is cut on a character boundary.
func FormatSnippet(snippet string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultSnippetLength
	}
	if utf8.RuneCountInString(snippet) <= maxLength {
		return snippet
	}
	return string([]rune(snippet)[:maxLength]) + "..."
}

// RenderCitation formats a user-facing citation for a file and chunk position.
func RenderCitation(filename string, chunkIndex int) string {
	return fmt.Sprintf("[Source: %s, chunk %d]", filename, chunkIndex)
}
