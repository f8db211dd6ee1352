package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

func TestServer_handleKeywordSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns matching chunks", func(t *testing.T) {
		index := &mockIndexService{
			keywordResults: []domain.KeywordResult{
				{
					Filename:   "notes.txt",
					ChunkIndex: 2,
					Snippet:    "matched text",
					Citation:   "[Source: notes.txt, chunk 2]",
				},
			},
		}
		server, err := NewServer(&Ports{Index: index})
		require.NoError(t, err)

		_, output, err := server.handleKeywordSearch(ctx, nil, KeywordSearchInput{Query: "matched"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "notes.txt", output.Results[0].Filename)
		assert.Equal(t, "matched", index.lastQuery)
		assert.False(t, index.lastCase)
	})

	t.Run("passes case sensitivity through", func(t *testing.T) {
		index := &mockIndexService{}
		server, err := NewServer(&Ports{Index: index})
		require.NoError(t, err)

		_, _, err = server.handleKeywordSearch(ctx, nil, KeywordSearchInput{Query: "X", CaseSensitive: true})

		require.NoError(t, err)
		assert.True(t, index.lastCase)
	})
}

func TestServer_handleSemanticSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked chunks", func(t *testing.T) {
		index := &mockIndexService{
			semanticResults: []domain.SemanticResult{
				{Filename: "notes.txt", ChunkIndex: 0, Similarity: 0.92, Snippet: "relevant"},
			},
		}
		server, err := NewServer(&Ports{Index: index})
		require.NoError(t, err)

		_, output, err := server.handleSemanticSearch(ctx, nil, SemanticSearchInput{Query: "meaning", TopK: 3})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, 0.92, output.Results[0].Similarity)
		assert.Equal(t, 3, index.lastTopK)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		index := &mockIndexService{semanticErr: errors.New("embedder down")}
		server, err := NewServer(&Ports{Index: index})
		require.NoError(t, err)

		_, _, err = server.handleSemanticSearch(ctx, nil, SemanticSearchInput{Query: "x"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedder down")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns grounded answer", func(t *testing.T) {
		chat := &mockChatService{answer: &domain.Answer{
			Text:    "the answer",
			Context: []domain.SemanticResult{{Filename: "notes.txt"}},
		}}
		server, err := NewServer(&Ports{Index: &mockIndexService{}, Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "what?"})

		require.NoError(t, err)
		assert.Equal(t, "the answer", output.Answer)
		assert.Len(t, output.Context, 1)
	})

	t.Run("returns error on generation failure", func(t *testing.T) {
		chat := &mockChatService{err: errors.New("model unavailable")}
		server, err := NewServer(&Ports{Index: &mockIndexService{}, Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "what?"})

		assert.Error(t, err)
	})
}

func TestNewServer(t *testing.T) {
	t.Run("nil index service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})

		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingIndexService)
	})

	t.Run("index only is valid", func(t *testing.T) {
		server, err := NewServer(&Ports{Index: &mockIndexService{}})

		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestInstructions(t *testing.T) {
	t.Run("without chat the ask tool is advertised as unavailable", func(t *testing.T) {
		text := instructions(&Ports{Index: &mockIndexService{}})

		assert.Contains(t, text, "keyword_search")
		assert.Contains(t, text, "semantic_search")
		assert.Contains(t, text, "ask tool is not available")
	})

	t.Run("with chat the ask tool is advertised", func(t *testing.T) {
		text := instructions(&Ports{Index: &mockIndexService{}, Chat: &mockChatService{}})

		assert.Contains(t, text, "Use ask")
		assert.NotContains(t, text, "not available")
	})

	t.Run("with library the document resources are advertised", func(t *testing.T) {
		without := instructions(&Ports{Index: &mockIndexService{}})
		with := instructions(&Ports{Index: &mockIndexService{}, Library: &mockLibraryService{}})

		assert.NotContains(t, without, "refchat://documents")
		assert.Contains(t, with, "refchat://documents/{filename}")
	})
}

func TestExtractFilename(t *testing.T) {
	assert.Equal(t, "notes.txt", extractFilename("refchat://documents/notes.txt"))
	assert.Empty(t, extractFilename("refchat://other/notes.txt"))
	assert.Empty(t, extractFilename("notes.txt"))
}
