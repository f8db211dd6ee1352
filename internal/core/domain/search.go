package domain

// KeywordResult is a single keyword search hit.
// Results carry no score; order is the insertion order of matches.
type KeywordResult struct {
	// Filename is the source file of the matching chunk.
	Filename string `json:"filename"`

	// ChunkIndex is the position of the chunk within its document.
	ChunkIndex int `json:"chunk_index"`

	// Snippet is the truncated chunk text.
	Snippet string `json:"text_snippet"`

	// Citation is a human-readable source reference.
	Citation string `json:"citation"`
}

// SemanticResult is a single semantic search hit, ranked by cosine
// similarity between the query embedding and the chunk embedding.
type SemanticResult struct {
	// Filename is the source file of the matching chunk.
	Filename string `json:"filename"`

	// ChunkIndex is the position of the chunk within its document.
	ChunkIndex int `json:"chunk_index"`

	// Similarity is the cosine similarity in [-1, 1].
	Similarity float64 `json:"similarity"`

	// Snippet is the truncated chunk text.
	Snippet string `json:"text_snippet"`

	// Citation is a human-readable source reference.
	Citation string `json:"citation"`
}

// IndexStats summarises the current index contents.
type IndexStats struct {
	// DocumentsCount is the number of indexed documents.
	DocumentsCount int `json:"documents_count"`

	// ChunksCount is the number of indexed chunks.
	ChunksCount int `json:"chunks_count"`

	// EmbeddingDimension is the vector size of stored embeddings,
	// or 0 when the index is empty.
	EmbeddingDimension int `json:"embedding_dimension"`
}

// ChunkDetail is a diagnostic view of one indexed chunk.
type ChunkDetail struct {
	// ChunkID is the index-wide chunk identifier.
	ChunkID int `json:"chunk_id"`

	// ChunkIndex is the position of the chunk within its document.
	ChunkIndex int `json:"chunk_index"`

	// Filename is the source file.
	Filename string `json:"filename"`

	// DocumentID is the parent document identifier.
	DocumentID int `json:"doc_id"`

	// Text is the full chunk content.
	Text string `json:"text"`

	// WordCount is the number of whitespace-separated words.
	WordCount int `json:"word_count"`

	// CharacterCount is the length of the chunk text in bytes.
	CharacterCount int `json:"character_count"`

	// HasEmbedding reports whether an embedding is stored for the chunk.
	HasEmbedding bool `json:"has_embedding"`
}
