// Package api exposes the document index, library and chat services over a
// JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/logger"
)

// OllamaInfo describes the model server the API reports in status responses.
type OllamaInfo struct {
	URL        string
	EmbedModel string
	ChatModel  string
}

// Server handles HTTP requests for the document assistant.
type Server struct {
	index   driving.IndexService
	chat    driving.ChatService
	library driving.LibraryService
	ollama  OllamaInfo
	version string
	docsDir string

	maxUploadBytes int64
	defaultTopK    int
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithVersion sets the version string reported by the health endpoint.
func WithVersion(v string) ServerOption {
	return func(s *Server) { s.version = v }
}

// WithMaxUploadBytes caps the size of multipart upload requests.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithDefaultTopK sets the top_k used when requests omit it.
func WithDefaultTopK(k int) ServerOption {
	return func(s *Server) {
		if k > 0 {
			s.defaultTopK = k
		}
	}
}

// WithDocsDir sets the folder downloads are served from.
func WithDocsDir(dir string) ServerOption {
	return func(s *Server) { s.docsDir = dir }
}

// NewServer creates an API server over the given services.
func NewServer(index driving.IndexService, chat driving.ChatService, library driving.LibraryService, ollama OllamaInfo, opts ...ServerOption) *Server {
	s := &Server{
		index:          index,
		chat:           chat,
		library:        library,
		ollama:         ollama,
		version:        "dev",
		docsDir:        "docs",
		maxUploadBytes: 50 << 20,
		defaultTopK:    5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /list", s.handleList)
	mux.HandleFunc("GET /documents/{filename}/info", s.handleDocumentInfo)
	mux.HandleFunc("GET /documents/{filename}/content", s.handleDocumentContent)
	mux.HandleFunc("GET /documents/{filename}/chunks", s.handleDocumentChunks)
	mux.HandleFunc("GET /documents/{filename}/preview", s.handleDocumentPreview)
	mux.HandleFunc("GET /documents/{filename}/download", s.handleDocumentDownload)
	mux.HandleFunc("GET /documents/{filename}/indexed-chunks", s.handleIndexedChunks)
	mux.HandleFunc("DELETE /documents/{filename}", s.handleDeleteDocument)
	mux.HandleFunc("POST /reindex", s.handleReindex)

	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /semantic_search", s.handleSemanticSearch)
	mux.HandleFunc("GET /ask", s.handleAskGet)
	mux.HandleFunc("POST /ask", s.handleAskPost)

	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /ollama/status", s.handleOllamaStatus)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return s.withRequestLog(mux)
}

// Serve runs the HTTP server on addr until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("API server listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestLog tags each request with an id and logs method, path, status
// and duration.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s -> %d (%s) [%s]", r.Method, r.URL.Path, rec.status, time.Since(start), requestID)
	})
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrEmptyDocument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAnswerUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: http.StatusText(status), Detail: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: http.StatusText(http.StatusBadRequest), Detail: detail})
}

// decodeJSON parses a JSON request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
