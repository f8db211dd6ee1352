package domain

import "time"

// DocumentInfo describes a file in the documents folder.
type DocumentInfo struct {
	// Filename is the base name of the file.
	Filename string `json:"filename"`

	// FileSize is the size on disk in bytes.
	FileSize int64 `json:"file_size"`

	// FileType is the lowercase extension including the dot.
	FileType string `json:"file_type"`

	// UploadDate is the file's last modification time.
	UploadDate time.Time `json:"upload_date"`

	// ChunksCount is the number of chunks the chunker produces for the file.
	ChunksCount int `json:"chunks_count"`

	// CharacterCount is the extracted text length, or -1 when extraction failed.
	CharacterCount int `json:"character_count"`
}

// SourceChunk is a chunk computed directly from a file's current text,
// independent of what the index holds. Used for document inspection.
type SourceChunk struct {
	// ChunkIndex is the position of the chunk within the document.
	ChunkIndex int `json:"chunk_index"`

	// Text is the chunk content.
	Text string `json:"text"`

	// WordCount is the number of whitespace-separated words.
	WordCount int `json:"word_count"`

	// CharacterCount is the chunk length in bytes.
	CharacterCount int `json:"character_count"`
}

// Answer is the chat service response: a generated answer plus the
// retrieved context that grounded it.
type Answer struct {
	// Text is the generated answer.
	Text string `json:"answer"`

	// Context holds the retrieved chunks the answer was grounded on.
	Context []SemanticResult `json:"context"`

	// Question echoes the question that was asked.
	Question string `json:"question"`
}
