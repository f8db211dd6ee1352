package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refchat/internal/core/ports/driven"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestGenerate(t *testing.T) {
	t.Run("returns completion", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/generate", r.URL.Path)

			var req generateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "llama3.2", req.Model)
			assert.Equal(t, "the prompt", req.Prompt)
			assert.False(t, req.Stream)
			assert.Nil(t, req.Options)

			json.NewEncoder(w).Encode(generateResponse{Response: "the answer", Done: true})
		})
		generator := New(Config{BaseURL: server.URL})

		answer, err := generator.Generate(context.Background(), "the prompt", driven.GenerateOptions{})

		require.NoError(t, err)
		assert.Equal(t, "the answer", answer)
	})

	t.Run("passes generation options", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			var req generateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.NotNil(t, req.Options)
			assert.Equal(t, 128, req.Options.NumPredict)
			assert.InDelta(t, 0.2, req.Options.Temperature, 1e-9)
			assert.Equal(t, []string{"END"}, req.Options.Stop)

			json.NewEncoder(w).Encode(generateResponse{Response: "ok", Done: true})
		})
		generator := New(Config{BaseURL: server.URL})

		_, err := generator.Generate(context.Background(), "p", driven.GenerateOptions{
			MaxTokens:   128,
			Temperature: 0.2,
			StopWords:   []string{"END"},
		})

		require.NoError(t, err)
	})

	t.Run("server error", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		})
		generator := New(Config{BaseURL: server.URL})

		_, err := generator.Generate(context.Background(), "p", driven.GenerateOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		})

		assert.NoError(t, New(Config{BaseURL: server.URL}).Ping(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		assert.Error(t, New(Config{BaseURL: "http://127.0.0.1:1"}).Ping(context.Background()))
	})
}

func TestDefaults(t *testing.T) {
	generator := New(Config{})

	assert.Equal(t, DefaultModel, generator.ModelName())
	assert.NoError(t, generator.Close())
}
