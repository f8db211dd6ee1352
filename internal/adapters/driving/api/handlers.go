package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/logger"
)

// maxQuestionLength bounds questions accepted by the ask endpoints.
const maxQuestionLength = 1000

// uploadResponse is the body returned after an upload.
type uploadResponse struct {
	Filename      string `json:"filename"`
	Message       string `json:"message"`
	FileSize      int64  `json:"file_size"`
	ChunksCreated int    `json:"chunks_created"`
}

// handleUpload saves an uploaded file and indexes it. Incremental indexing
// failures fall back to a full rebuild so the index never silently misses
// an uploaded document.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "no file provided")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeBadRequest(w, "failed to read uploaded file")
		return
	}

	logger.Info("Processing upload request for file: %s", header.Filename)

	ref, size, err := s.library.SaveUpload(header.Filename, content)
	if err != nil {
		writeError(w, err)
		return
	}

	chunksCreated, err := s.index.AddDocument(r.Context(), ref)
	if err != nil {
		logger.Warn("Incremental indexing failed, falling back to full rebuild: %v", err)
		_, chunksCreated, err = s.index.Rebuild(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Filename:      ref.Name,
		Message:       "File uploaded and indexed successfully",
		FileSize:      size,
		ChunksCreated: chunksCreated,
	})
}

// documentListResponse is the body for the document listing.
type documentListResponse struct {
	Documents  []domain.DocumentInfo `json:"documents"`
	TotalCount int                   `json:"total_count"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.library.ListDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentListResponse{Documents: infos, TotalCount: len(infos)})
}

func (s *Server) handleDocumentInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.library.DocumentInfo(r.Context(), r.PathValue("filename"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// documentContentResponse is the body for full document content.
type documentContentResponse struct {
	Filename       string `json:"filename"`
	Content        string `json:"content"`
	FileType       string `json:"file_type"`
	CharacterCount int    `json:"character_count"`
	WordCount      int    `json:"word_count"`
}

func (s *Server) handleDocumentContent(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	content, err := s.library.DocumentContent(r.Context(), filename)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentContentResponse{
		Filename:       filename,
		Content:        content,
		FileType:       strings.ToLower(filepath.Ext(filename)),
		CharacterCount: len(content),
		WordCount:      len(strings.Fields(content)),
	})
}

// documentChunksResponse is the body for a document's chunked content.
type documentChunksResponse struct {
	Filename    string               `json:"filename"`
	TotalChunks int                  `json:"total_chunks"`
	Chunks      []domain.SourceChunk `json:"chunks"`
}

func (s *Server) handleDocumentChunks(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	chunks, err := s.library.DocumentChunks(r.Context(), filename)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentChunksResponse{
		Filename:    filename,
		TotalChunks: len(chunks),
		Chunks:      chunks,
	})
}

// previewResponse is the body for a truncated document preview.
type previewResponse struct {
	Filename          string `json:"filename"`
	Preview           string `json:"preview"`
	IsTruncated       bool   `json:"is_truncated"`
	TotalCharacters   int    `json:"total_characters"`
	PreviewCharacters int    `json:"preview_characters"`
}

func (s *Server) handleDocumentPreview(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	maxChars := 1000
	if v := r.URL.Query().Get("max_chars"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "max_chars must be an integer")
			return
		}
		maxChars = n
	}
	if maxChars <= 0 || maxChars > 10000 {
		writeBadRequest(w, "max_chars must be between 1 and 10000")
		return
	}

	content, err := s.library.DocumentContent(r.Context(), filename)
	if err != nil {
		writeError(w, err)
		return
	}

	// Counts and slicing are in runes so multi-byte text is never cut
	// mid-character.
	preview := content
	totalChars := utf8.RuneCountInString(content)
	truncated := totalChars > maxChars
	if truncated {
		preview = string([]rune(content)[:maxChars]) + "..."
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Filename:          filename,
		Preview:           preview,
		IsTruncated:       truncated,
		TotalCharacters:   totalChars,
		PreviewCharacters: utf8.RuneCountInString(preview),
	})
}

// handleDocumentDownload serves the original file bytes.
func (s *Server) handleDocumentDownload(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(r.PathValue("filename"))

	path := filepath.Join(s.docsDir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, fmt.Errorf("%s: %w", filename, domain.ErrNotFound))
		return
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	http.ServeFile(w, r, path)
}

// indexedChunksResponse is the body for a document's indexed chunks.
type indexedChunksResponse struct {
	Filename           string               `json:"filename"`
	TotalIndexedChunks int                  `json:"total_indexed_chunks"`
	Chunks             []domain.ChunkDetail `json:"chunks"`
}

func (s *Server) handleIndexedChunks(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	chunks := s.index.DocumentChunks(filename)
	if len(chunks) == 0 {
		writeError(w, fmt.Errorf("no indexed chunks for %s: %w", filename, domain.ErrNotFound))
		return
	}

	writeJSON(w, http.StatusOK, indexedChunksResponse{
		Filename:           filename,
		TotalIndexedChunks: len(chunks),
		Chunks:             chunks,
	})
}

// deleteResponse is the body returned after a deletion.
type deleteResponse struct {
	Message       string `json:"message"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// handleDeleteDocument removes the file and its indexed chunks. The index
// is updated first so a successful response never leaves stale chunks.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	chunksRemoved := s.index.RemoveDocument(filename)

	if err := s.library.DeleteDocument(filename); err != nil {
		writeError(w, err)
		return
	}

	logger.Info("Deleted document: %s (%d chunks removed)", filename, chunksRemoved)
	writeJSON(w, http.StatusOK, deleteResponse{
		Message:       fmt.Sprintf("Document '%s' deleted successfully", filename),
		ChunksRemoved: chunksRemoved,
	})
}

// reindexResponse is the body returned after a manual rebuild.
type reindexResponse struct {
	Message            string `json:"message"`
	DocumentsProcessed int    `json:"documents_processed"`
	ChunksCreated      int    `json:"chunks_created"`
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	docs, chunks, err := s.index.Rebuild(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reindexResponse{
		Message:            "Reindexing completed successfully",
		DocumentsProcessed: docs,
		ChunksCreated:      chunks,
	})
}

// keywordSearchResponse is the body for keyword search results.
type keywordSearchResponse struct {
	Results      []domain.KeywordResult `json:"results"`
	Query        string                 `json:"query"`
	TotalResults int                    `json:"total_results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeBadRequest(w, "query parameter 'q' is required")
		return
	}

	caseSensitive := false
	if v := r.URL.Query().Get("case_sensitive"); v != "" {
		caseSensitive, _ = strconv.ParseBool(v)
	}

	results := s.index.KeywordSearch(query, caseSensitive)
	writeJSON(w, http.StatusOK, keywordSearchResponse{
		Results:      results,
		Query:        query,
		TotalResults: len(results),
	})
}

// semanticSearchResponse is the body for semantic search results.
type semanticSearchResponse struct {
	Results      []domain.SemanticResult `json:"results"`
	Query        string                  `json:"query"`
	TotalResults int                     `json:"total_results"`
}

func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeBadRequest(w, "query parameter 'q' is required")
		return
	}

	topK, ok := s.parseTopK(w, r)
	if !ok {
		return
	}

	results, err := s.index.SemanticSearch(r.Context(), query, topK)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, semanticSearchResponse{
		Results:      results,
		Query:        query,
		TotalResults: len(results),
	})
}

// askRequest is the POST body for the ask endpoint.
type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func (s *Server) handleAskGet(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("q")

	topK, ok := s.parseTopK(w, r)
	if !ok {
		return
	}

	s.answer(w, r, question, topK)
}

func (s *Server) handleAskPost(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.TopK == 0 {
		req.TopK = s.defaultTopK
	}

	s.answer(w, r, req.Question, req.TopK)
}

// answer validates the question, checks model availability and runs RAG.
func (s *Server) answer(w http.ResponseWriter, r *http.Request, question string, topK int) {
	if strings.TrimSpace(question) == "" {
		writeBadRequest(w, "question must not be empty")
		return
	}
	if len(question) > maxQuestionLength {
		writeBadRequest(w, fmt.Sprintf("question must be at most %d characters", maxQuestionLength))
		return
	}

	if !s.chat.Healthy(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:  http.StatusText(http.StatusServiceUnavailable),
			Detail: "Ollama service is not available. Please ensure Ollama is running.",
		})
		return
	}

	answer, err := s.chat.Ask(r.Context(), question, topK)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.index.Stats())
}

// ollamaStatusResponse reports model server reachability.
type ollamaStatusResponse struct {
	Available  bool   `json:"available"`
	Service    string `json:"service"`
	URL        string `json:"url"`
	Model      string `json:"model"`
	EmbedModel string `json:"embed_model"`
	Status     string `json:"status"`
}

func (s *Server) handleOllamaStatus(w http.ResponseWriter, r *http.Request) {
	available := s.chat.Healthy(r.Context())

	status := "healthy"
	if !available {
		status = "unavailable"
	}

	writeJSON(w, http.StatusOK, ollamaStatusResponse{
		Available:  available,
		Service:    "Ollama",
		URL:        s.ollama.URL,
		Model:      s.ollama.ChatModel,
		EmbedModel: s.ollama.EmbedModel,
		Status:     status,
	})
}

// healthResponse is the body for the health check.
type healthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	OllamaAvailable bool   `json:"ollama_available"`
	DocumentsCount  int    `json:"documents_count"`
	ChunksCount     int    `json:"chunks_count"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	stats := s.index.Stats()

	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		Version:         s.version,
		OllamaAvailable: s.chat.Healthy(r.Context()),
		DocumentsCount:  stats.DocumentsCount,
		ChunksCount:     stats.ChunksCount,
	})
}

// parseTopK reads the top_k query parameter, applying the default and
// reporting malformed values. Range clamping is the index's concern.
func (s *Server) parseTopK(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("top_k")
	if v == "" {
		return s.defaultTopK, true
	}
	topK, err := strconv.Atoi(v)
	if err != nil || topK < 1 {
		writeBadRequest(w, "top_k must be a positive integer")
		return 0, false
	}
	return topK, true
}
