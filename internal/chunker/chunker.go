// Package chunker provides a sentence-aware text chunker with a word budget.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultMaxWords is the default word budget per chunk.
const DefaultMaxWords = 500

// sentenceRe matches sentence-terminated spans. Text without terminators
// is treated as a single sentence.
var sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// Chunker splits text into chunks at sentence boundaries, packing whole
// sentences into each chunk up to a word budget. Sentences longer than the
// budget are split on word boundaries.
type Chunker struct {
	maxWords int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxWords sets the word budget per chunk.
func WithMaxWords(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxWords = n
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{maxWords: DefaultMaxWords}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split divides text into ordered chunks. Empty or whitespace-only text
// produces no chunks.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	sentences := splitSentences(text)

	var chunks []string
	var current []string
	wordsInChunk := 0

	for _, sentence := range sentences {
		words := strings.Fields(sentence)
		if len(words) == 0 {
			continue
		}

		// A single sentence over the budget is split on word boundaries.
		if len(words) > c.maxWords {
			if len(current) > 0 {
				chunks = append(chunks, strings.Join(current, " "))
				current = nil
				wordsInChunk = 0
			}
			for i := 0; i < len(words); i += c.maxWords {
				end := i + c.maxWords
				if end > len(words) {
					end = len(words)
				}
				chunks = append(chunks, strings.Join(words[i:end], " "))
			}
			continue
		}

		if wordsInChunk+len(words) > c.maxWords && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
			wordsInChunk = 0
		}

		current = append(current, sentence)
		wordsInChunk += len(words)
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// splitSentences breaks text into sentence strings. Trailing text without
// a terminator becomes its own sentence.
func splitSentences(text string) []string {
	matches := sentenceRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{strings.TrimSpace(text)}
	}

	var sentences []string
	last := 0
	for _, m := range matches {
		s := strings.TrimSpace(text[m[0]:m[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = m[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
