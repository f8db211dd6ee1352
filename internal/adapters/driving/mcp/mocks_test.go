package mcp

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// mockIndexService is a test double for driving.IndexService.
type mockIndexService struct {
	keywordResults  []domain.KeywordResult
	semanticResults []domain.SemanticResult
	semanticErr     error
	lastQuery       string
	lastTopK        int
	lastCase        bool
}

func (m *mockIndexService) Rebuild(_ context.Context) (int, int, error) { return 0, 0, nil }

func (m *mockIndexService) AddDocument(_ context.Context, _ domain.FileRef) (int, error) {
	return 0, nil
}

func (m *mockIndexService) RemoveDocument(_ string) int { return 0 }

func (m *mockIndexService) KeywordSearch(query string, caseSensitive bool) []domain.KeywordResult {
	m.lastQuery = query
	m.lastCase = caseSensitive
	return m.keywordResults
}

func (m *mockIndexService) SemanticSearch(_ context.Context, query string, topK int) ([]domain.SemanticResult, error) {
	m.lastQuery = query
	m.lastTopK = topK
	if m.semanticErr != nil {
		return nil, m.semanticErr
	}
	return m.semanticResults, nil
}

func (m *mockIndexService) Stats() domain.IndexStats { return domain.IndexStats{} }

func (m *mockIndexService) DocumentChunks(_ string) []domain.ChunkDetail { return nil }

// mockChatService is a test double for driving.ChatService.
type mockChatService struct {
	answer *domain.Answer
	err    error
}

func (m *mockChatService) Ask(_ context.Context, question string, _ int) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Text: "answer", Question: question}, nil
}

func (m *mockChatService) Healthy(_ context.Context) bool { return m.err == nil }

// mockLibraryService is a test double for driving.LibraryService.
type mockLibraryService struct {
	infos   []domain.DocumentInfo
	content string
	err     error
}

func (m *mockLibraryService) SaveUpload(_ string, _ []byte) (domain.FileRef, int64, error) {
	return domain.FileRef{}, 0, nil
}

func (m *mockLibraryService) ListDocuments(_ context.Context) ([]domain.DocumentInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.infos, nil
}

func (m *mockLibraryService) DocumentInfo(_ context.Context, _ string) (*domain.DocumentInfo, error) {
	return nil, domain.ErrNotFound
}

func (m *mockLibraryService) DocumentContent(_ context.Context, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.content, nil
}

func (m *mockLibraryService) DocumentChunks(_ context.Context, _ string) ([]domain.SourceChunk, error) {
	return nil, nil
}

func (m *mockLibraryService) DeleteDocument(_ string) error { return nil }
