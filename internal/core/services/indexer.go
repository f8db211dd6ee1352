package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// Default search parameters.
const (
	DefaultTopK = 5
	MaxTopK     = 20
)

// Indexer owns the in-memory document index: chunk storage, embedding
// computation, similarity ranking and add/remove/rebuild consistency.
//
// A single mutex guards every mutating operation and every compound read,
// so a rebuild blocks concurrent searches until it completes. Document and
// chunk id counters only ever increase; ids are never reused within the
// process lifetime, even across remove/add cycles and full rebuilds, so a
// reader holding an id can never see it silently rebound to other content.
type Indexer struct {
	source        driven.DocumentSource
	embedder      driven.Embedder
	previewLength int
	defaultTopK   int
	maxTopK       int

	mu         sync.Mutex
	documents  map[int]domain.Document
	chunks     map[int]domain.Chunk
	order      []int                   // chunk ids in insertion order
	byFilename map[string]map[int]bool // filename -> chunk id set
	nextDocID  int
	nextChunk  int
}

// IndexerOption configures the indexer.
type IndexerOption func(*Indexer)

// WithPreviewLength sets the snippet preview length for search results.
func WithPreviewLength(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.previewLength = n
		}
	}
}

// WithTopK sets the default and maximum number of semantic search results.
func WithTopK(defaultTopK, maxTopK int) IndexerOption {
	return func(ix *Indexer) {
		if defaultTopK > 0 {
			ix.defaultTopK = defaultTopK
		}
		if maxTopK >= ix.defaultTopK {
			ix.maxTopK = maxTopK
		}
	}
}

// NewIndexer creates an empty index over the given document source and
// embedding service.
func NewIndexer(source driven.DocumentSource, embedder driven.Embedder, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		source:        source,
		embedder:      embedder,
		previewLength: domain.DefaultSnippetLength,
		defaultTopK:   DefaultTopK,
		maxTopK:       MaxTopK,
		documents:     make(map[int]domain.Document),
		chunks:        make(map[int]domain.Chunk),
		byFilename:    make(map[string]map[int]bool),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Rebuild clears the index and repopulates it from the document source.
// Files that fail extraction or embedding are logged and skipped; the
// rebuild continues with the remaining files. A missing docs folder yields
// (0, 0) without error. The exclusive lock is held for the full duration,
// so no caller can observe a partially-populated store.
func (ix *Indexer) Rebuild(ctx context.Context) (int, int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	logger.Section("Index Rebuild")

	ix.clearLocked()

	files, err := ix.source.ListFiles(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Docs folder not found, skipping indexing")
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("list files: %w", err)
	}

	docsProcessed := 0
	chunksCreated := 0

	for _, file := range files {
		created, err := ix.indexFileLocked(ctx, file)
		if err != nil {
			logger.Warn("Failed to index %s: %v", file.Name, err)
			continue
		}
		docsProcessed++
		chunksCreated += created
		logger.Debug("Indexed %s: %d chunks", file.Name, created)
	}

	logger.Info("Rebuild complete: %d documents, %d chunks", docsProcessed, chunksCreated)
	return docsProcessed, chunksCreated, nil
}

// AddDocument indexes a single file without touching existing entries.
// Unlike Rebuild it fails loudly: unsupported types, extraction failures,
// empty content and embedding failures all propagate, so the API layer can
// fall back to a full rebuild.
func (ix *Indexer) AddDocument(ctx context.Context, file domain.FileRef) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	logger.Info("Adding document to index: %s", file.Name)

	created, err := ix.indexFileLocked(ctx, file)
	if err != nil {
		return 0, fmt.Errorf("add document %s: %w", file.Name, err)
	}

	logger.Info("Added %s: %d chunks", file.Name, created)
	return created, nil
}

// indexFileLocked extracts, cleans, chunks and embeds one file, then
// commits the document and its chunks with fresh ids. Nothing is stored
// until every step succeeds, so a failed file leaves no trace. Callers
// must hold the lock.
func (ix *Indexer) indexFileLocked(ctx context.Context, file domain.FileRef) (int, error) {
	text, err := ix.source.ExtractText(ctx, file)
	if err != nil {
		return 0, err
	}

	cleaned := domain.CleanText(text)
	if cleaned == "" {
		return 0, domain.ErrEmptyDocument
	}

	pieces := ix.source.SplitChunks(cleaned)
	if len(pieces) == 0 {
		return 0, domain.ErrEmptyDocument
	}

	// One batch call per file; a failed batch aborts the whole file so the
	// index never holds chunks without embeddings.
	embeddings, err := ix.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(pieces) {
		return 0, fmt.Errorf("embed chunks: got %d embeddings for %d chunks", len(embeddings), len(pieces))
	}

	docID := ix.nextDocID
	ix.nextDocID++
	ix.documents[docID] = domain.Document{ID: docID, Filename: file.Name, Text: cleaned}

	ids := ix.byFilename[file.Name]
	if ids == nil {
		ids = make(map[int]bool)
		ix.byFilename[file.Name] = ids
	}

	for i, piece := range pieces {
		chunkID := ix.nextChunk
		ix.nextChunk++
		ix.chunks[chunkID] = domain.Chunk{
			ID:         chunkID,
			DocumentID: docID,
			Filename:   file.Name,
			Index:      i,
			Text:       piece,
			Embedding:  embeddings[i],
		}
		ix.order = append(ix.order, chunkID)
		ids[chunkID] = true
	}

	return len(pieces), nil
}

// RemoveDocument removes every chunk whose filename matches and the
// documents those chunks referenced. Returns the number of removed chunks;
// an unknown filename returns 0 and is not an error.
func (ix *Indexer) RemoveDocument(filename string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ids, ok := ix.byFilename[filename]
	if !ok || len(ids) == 0 {
		return 0
	}

	docIDs := make(map[int]bool)
	for id := range ids {
		docIDs[ix.chunks[id].DocumentID] = true
		delete(ix.chunks, id)
	}
	for docID := range docIDs {
		delete(ix.documents, docID)
	}
	delete(ix.byFilename, filename)

	kept := ix.order[:0]
	for _, id := range ix.order {
		if !ids[id] {
			kept = append(kept, id)
		}
	}
	ix.order = kept

	logger.Info("Removed %d chunks for document %s", len(ids), filename)
	return len(ids)
}

// KeywordSearch returns every chunk containing the query as a substring,
// in insertion order. Matching folds case unless caseSensitive is set.
// An empty or whitespace-only query returns an empty list.
func (ix *Indexer) KeywordSearch(query string, caseSensitive bool) []domain.KeywordResult {
	if strings.TrimSpace(query) == "" {
		return []domain.KeywordResult{}
	}

	needle := query
	if !caseSensitive {
		needle = strings.ToLower(query)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	results := []domain.KeywordResult{}
	for _, id := range ix.order {
		chunk := ix.chunks[id]
		haystack := chunk.Text
		if !caseSensitive {
			haystack = strings.ToLower(chunk.Text)
		}
		if !strings.Contains(haystack, needle) {
			continue
		}
		results = append(results, domain.KeywordResult{
			Filename:   chunk.Filename,
			ChunkIndex: chunk.Index,
			Snippet:    domain.FormatSnippet(chunk.Text, ix.previewLength),
			Citation:   domain.RenderCitation(chunk.Filename, chunk.Index),
		})
	}

	logger.Debug("Keyword search %q: %d results", query, len(results))
	return results
}

// SemanticSearch ranks all chunks by cosine similarity to the query
// embedding and returns the top k results sorted by similarity descending.
// Ties keep scan order, which is insertion order. topK values outside
// [1, MaxTopK] are clamped; non-positive values use the default.
func (ix *Indexer) SemanticSearch(ctx context.Context, query string, topK int) ([]domain.SemanticResult, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.SemanticResult{}, nil
	}

	if topK <= 0 {
		topK = ix.defaultTopK
	}
	if topK > ix.maxTopK {
		topK = ix.maxTopK
	}

	// Empty-store fast path: no point computing a query embedding when
	// there is nothing to compare against.
	ix.mu.Lock()
	empty := len(ix.order) == 0
	ix.mu.Unlock()
	if empty {
		logger.Debug("Semantic search on empty index")
		return []domain.SemanticResult{}, nil
	}

	// The query embedding is computed outside the lock; a slow embedder
	// must not stall index mutations. Ranking below sees one consistent
	// snapshot because the whole scan happens under the lock.
	queryEmb, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		similarity float64
		chunk      domain.Chunk
	}

	ix.mu.Lock()
	ranked := make([]scored, 0, len(ix.order))
	for _, id := range ix.order {
		chunk := ix.chunks[id]
		ranked = append(ranked, scored{
			similarity: cosineSimilarity(queryEmb, chunk.Embedding),
			chunk:      chunk,
		})
	}
	ix.mu.Unlock()

	// Stable sort: equal similarities preserve scan order deterministically.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].similarity > ranked[j].similarity
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}

	results := make([]domain.SemanticResult, 0, topK)
	for _, r := range ranked[:topK] {
		results = append(results, domain.SemanticResult{
			Filename:   r.chunk.Filename,
			ChunkIndex: r.chunk.Index,
			Similarity: r.similarity,
			Snippet:    domain.FormatSnippet(r.chunk.Text, ix.previewLength),
			Citation:   domain.RenderCitation(r.chunk.Filename, r.chunk.Index),
		})
	}

	logger.Debug("Semantic search %q: %d results", query, len(results))
	return results, nil
}

// Stats reports index counts and the embedding dimensionality, taken from
// the oldest stored chunk (0 when the index is empty).
func (ix *Indexer) Stats() domain.IndexStats {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	stats := domain.IndexStats{
		DocumentsCount: len(ix.documents),
		ChunksCount:    len(ix.chunks),
	}
	if len(ix.order) > 0 {
		stats.EmbeddingDimension = len(ix.chunks[ix.order[0]].Embedding)
	}
	return stats
}

// DocumentChunks returns the indexed chunks for a filename sorted by chunk
// index ascending, annotated with word/character counts for diagnostics.
func (ix *Indexer) DocumentChunks(filename string) []domain.ChunkDetail {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	details := []domain.ChunkDetail{}
	for id := range ix.byFilename[filename] {
		chunk := ix.chunks[id]
		details = append(details, domain.ChunkDetail{
			ChunkID:        chunk.ID,
			ChunkIndex:     chunk.Index,
			Filename:       chunk.Filename,
			DocumentID:     chunk.DocumentID,
			Text:           chunk.Text,
			WordCount:      len(strings.Fields(chunk.Text)),
			CharacterCount: len(chunk.Text),
			HasEmbedding:   len(chunk.Embedding) > 0,
		})
	}

	sort.Slice(details, func(i, j int) bool {
		return details[i].ChunkIndex < details[j].ChunkIndex
	})
	return details
}

// clearLocked drops all documents and chunks. Id counters are deliberately
// not reset, so ids stay unique across rebuilds.
func (ix *Indexer) clearLocked() {
	ix.documents = make(map[int]domain.Document)
	ix.chunks = make(map[int]domain.Chunk)
	ix.order = ix.order[:0]
	ix.byFilename = make(map[string]map[int]bool)
}

// cosineSimilarity computes dot(a,b) / (||a|| * ||b||), clamped to [-1, 1]
// to absorb floating-point overshoot. Zero-norm and dimension-mismatched
// vectors score 0.0 rather than producing NaN or a misaligned product.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	if len(a) != len(b) {
		logger.Warn("Embedding dimension mismatch: %d vs %d", len(a), len(b))
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1.0, math.Min(1.0, similarity))
}
