package domain

// Document represents an indexed document.
// It exists only for the lifetime of the index; documents are recreated on
// every rebuild and destroyed when their file is removed.
type Document struct {
	// ID is assigned at indexing time and is unique within the index lifetime.
	ID int

	// Filename is the base name of the source file.
	Filename string

	// Text is the full cleaned text content.
	Text string
}

// Chunk is the unit of embedding and retrieval: a bounded span of a
// document's text together with its vector representation.
type Chunk struct {
	// ID is unique within the process lifetime and never reused,
	// even across remove/add cycles.
	ID int

	// DocumentID links to the parent Document.
	DocumentID int

	// Filename is the base name of the source file.
	Filename string

	// Index is the zero-based position of this chunk within its document.
	Index int

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation for semantic search.
	Embedding []float32
}

// FileRef identifies a file presented by a document source.
type FileRef struct {
	// Path is the location the source can resolve (absolute file path).
	Path string

	// Name is the base filename used for citations and removal.
	Name string
}
