package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refchat/internal/chunker"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/services"
	"github.com/custodia-labs/refchat/internal/docsource/filesystem"
	"github.com/custodia-labs/refchat/internal/extract/plaintext"
)

// fakeEmbedder returns a constant unit vector for every text.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (f fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (fakeEmbedder) Dimensions() int              { return 2 }
func (fakeEmbedder) ModelName() string            { return "fake-embed" }
func (fakeEmbedder) Ping(_ context.Context) error { return nil }
func (fakeEmbedder) Close() error                 { return nil }

// fakeGenerator returns a canned answer and configurable health.
type fakeGenerator struct {
	answer  string
	pingErr error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return f.answer, nil
}

func (f *fakeGenerator) ModelName() string            { return "fake-llm" }
func (f *fakeGenerator) Ping(_ context.Context) error { return f.pingErr }
func (f *fakeGenerator) Close() error                 { return nil }

type harness struct {
	server    *httptest.Server
	docsDir   string
	generator *fakeGenerator
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	docsDir := t.TempDir()
	source := filesystem.New(docsDir, chunker.New(chunker.WithMaxWords(5)), []driven.Extractor{plaintext.New()})

	indexer := services.NewIndexer(source, fakeEmbedder{})
	generator := &fakeGenerator{answer: "canned answer"}
	chat := services.NewChat(indexer, generator)
	library := services.NewLibrary(source, source)

	srv := NewServer(indexer, chat, library,
		OllamaInfo{URL: "http://localhost:11434", EmbedModel: "fake-embed", ChatModel: "fake-llm"},
		WithVersion("test"),
		WithDocsDir(docsDir),
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &harness{server: ts, docsDir: docsDir, generator: generator}
}

func (h *harness) seedAndReindex(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(h.docsDir, name), []byte(content), 0o644))
	resp := h.do(t, http.MethodPost, "/reindex", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func (h *harness) do(t *testing.T, method, path string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, h.server.URL+path, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestUpload(t *testing.T) {
	t.Run("saves and indexes the file", func(t *testing.T) {
		h := newHarness(t)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "notes.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte("some searchable words about gophers."))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, h.server.URL+"/upload", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		var body uploadResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, "notes.txt", body.Filename)
		assert.Equal(t, 1, body.ChunksCreated)
		assert.FileExists(t, filepath.Join(h.docsDir, "notes.txt"))
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		h := newHarness(t)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "archive.zip")
		require.NoError(t, err)
		_, err = part.Write([]byte("binary"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, h.server.URL+"/upload", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects requests without a file", func(t *testing.T) {
		h := newHarness(t)

		resp := h.do(t, http.MethodPost, "/upload", bytes.NewBufferString("{}"))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSearchEndpoints(t *testing.T) {
	t.Run("keyword search", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "the gopher burrows deep.")

		resp := h.do(t, http.MethodGet, "/search?q=gopher", nil)

		var body keywordSearchResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, "gopher", body.Query)
		require.Equal(t, 1, body.TotalResults)
		assert.Equal(t, "a.txt", body.Results[0].Filename)
		assert.Equal(t, "[Source: a.txt, chunk 0]", body.Results[0].Citation)
	})

	t.Run("keyword search requires q", func(t *testing.T) {
		h := newHarness(t)

		resp := h.do(t, http.MethodGet, "/search", nil)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("semantic search", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "vector ranked content.")

		resp := h.do(t, http.MethodGet, "/semantic_search?q=anything&top_k=3", nil)

		var body semanticSearchResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		require.Equal(t, 1, body.TotalResults)
		assert.InDelta(t, 1.0, body.Results[0].Similarity, 1e-6)
	})

	t.Run("semantic search rejects bad top_k", func(t *testing.T) {
		h := newHarness(t)

		resp := h.do(t, http.MethodGet, "/semantic_search?q=x&top_k=zero", nil)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAsk(t *testing.T) {
	t.Run("GET returns grounded answer", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "facts live here.")

		resp := h.do(t, http.MethodGet, "/ask?q=what+facts%3F", nil)

		var body struct {
			Answer   string `json:"answer"`
			Question string `json:"question"`
			Context  []any  `json:"context"`
		}
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, "canned answer", body.Answer)
		assert.Equal(t, "what facts?", body.Question)
		assert.Len(t, body.Context, 1)
	})

	t.Run("POST body variant", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "facts live here.")

		resp := h.do(t, http.MethodPost, "/ask", bytes.NewBufferString(`{"question":"what facts?","top_k":3}`))

		var body struct {
			Answer string `json:"answer"`
		}
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, "canned answer", body.Answer)
	})

	t.Run("empty question", func(t *testing.T) {
		h := newHarness(t)

		resp := h.do(t, http.MethodGet, "/ask?q=", nil)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unavailable model returns 503", func(t *testing.T) {
		h := newHarness(t)
		h.generator.pingErr = errors.New("connection refused")

		resp := h.do(t, http.MethodGet, "/ask?q=anything", nil)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestDocumentEndpoints(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "short file.")

		resp := h.do(t, http.MethodGet, "/list", nil)

		var body documentListResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		require.Equal(t, 1, body.TotalCount)
		assert.Equal(t, "a.txt", body.Documents[0].Filename)
		assert.Equal(t, 1, body.Documents[0].ChunksCount)
	})

	t.Run("info and content", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "exactly four words here.")

		resp := h.do(t, http.MethodGet, "/documents/a.txt/content", nil)

		var body documentContentResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, "exactly four words here.", body.Content)
		assert.Equal(t, ".txt", body.FileType)
		assert.Equal(t, 4, body.WordCount)

		resp = h.do(t, http.MethodGet, "/documents/missing.txt/info", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("chunks", func(t *testing.T) {
		h := newHarness(t)
		// 5-word chunks: two sentences of four words each go to separate chunks.
		h.seedAndReindex(t, "a.txt", "one two three four. five six seven eight.")

		resp := h.do(t, http.MethodGet, "/documents/a.txt/chunks", nil)

		var body documentChunksResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, 2, body.TotalChunks)
	})

	t.Run("preview", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "a reasonably long sentence for previewing.")

		resp := h.do(t, http.MethodGet, "/documents/a.txt/preview?max_chars=10", nil)

		var body previewResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, "a reasonab...", body.Preview)
		assert.True(t, body.IsTruncated)

		resp = h.do(t, http.MethodGet, "/documents/a.txt/preview?max_chars=99999", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("preview counts characters, not bytes", func(t *testing.T) {
		h := newHarness(t)
		// 10 three-byte runes; a byte-based cut would split one in half.
		h.seedAndReindex(t, "a.txt", strings.Repeat("€", 10))

		resp := h.do(t, http.MethodGet, "/documents/a.txt/preview?max_chars=4", nil)

		var body previewResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, "€€€€...", body.Preview)
		assert.True(t, utf8.ValidString(body.Preview))
		assert.True(t, body.IsTruncated)
		assert.Equal(t, 10, body.TotalCharacters)
		assert.Equal(t, 7, body.PreviewCharacters)

		// Under the limit in characters even though over it in bytes.
		resp = h.do(t, http.MethodGet, "/documents/a.txt/preview?max_chars=10", nil)
		decodeBody(t, resp, &body)
		assert.Equal(t, strings.Repeat("€", 10), body.Preview)
		assert.False(t, body.IsTruncated)
	})

	t.Run("download", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "raw bytes.")

		resp := h.do(t, http.MethodGet, "/documents/a.txt/download", nil)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "a.txt")
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "raw bytes.", string(data))
	})

	t.Run("indexed chunks", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "indexed content.")

		resp := h.do(t, http.MethodGet, "/documents/a.txt/indexed-chunks", nil)

		var body indexedChunksResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, 1, body.TotalIndexedChunks)
		assert.True(t, body.Chunks[0].HasEmbedding)

		resp = h.do(t, http.MethodGet, "/documents/other.txt/indexed-chunks", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete removes file and chunks", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "to be removed.")

		resp := h.do(t, http.MethodDelete, "/documents/a.txt", nil)

		var body deleteResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, 1, body.ChunksRemoved)
		assert.NoFileExists(t, filepath.Join(h.docsDir, "a.txt"))

		resp = h.do(t, http.MethodDelete, "/documents/a.txt", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestStatusEndpoints(t *testing.T) {
	t.Run("stats", func(t *testing.T) {
		h := newHarness(t)
		h.seedAndReindex(t, "a.txt", "counted content.")

		resp := h.do(t, http.MethodGet, "/stats", nil)

		var body struct {
			DocumentsCount     int `json:"documents_count"`
			ChunksCount        int `json:"chunks_count"`
			EmbeddingDimension int `json:"embedding_dimension"`
		}
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, 1, body.DocumentsCount)
		assert.Equal(t, 1, body.ChunksCount)
		assert.Equal(t, 2, body.EmbeddingDimension)
	})

	t.Run("healthz", func(t *testing.T) {
		h := newHarness(t)

		resp := h.do(t, http.MethodGet, "/healthz", nil)

		var body healthResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "test", body.Version)
		assert.True(t, body.OllamaAvailable)
	})

	t.Run("ollama status reflects health", func(t *testing.T) {
		h := newHarness(t)
		h.generator.pingErr = errors.New("down")

		resp := h.do(t, http.MethodGet, "/ollama/status", nil)

		var body ollamaStatusResponse
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &body)
		assert.False(t, body.Available)
		assert.Equal(t, "unavailable", body.Status)
		assert.Equal(t, "fake-llm", body.Model)
	})

	t.Run("responses carry a request id", func(t *testing.T) {
		h := newHarness(t)

		resp := h.do(t, http.MethodGet, "/healthz", nil)
		defer resp.Body.Close()

		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})
}
