package cli

import (
	"context"

	"github.com/custodia-labs/refchat/internal/config"
	"github.com/custodia-labs/refchat/internal/core/domain"
)

// stubIndex is a test double for driving.IndexService.
type stubIndex struct {
	keyword     []domain.KeywordResult
	ranked      []domain.SemanticResult
	stats       domain.IndexStats
	rebuildDocs int
	rebuildErr  error
	removed     int
	lastQuery   string
	lastTopK    int
}

func (s *stubIndex) Rebuild(_ context.Context) (int, int, error) {
	if s.rebuildErr != nil {
		return 0, 0, s.rebuildErr
	}
	return s.rebuildDocs, s.rebuildDocs * 2, nil
}

func (s *stubIndex) AddDocument(_ context.Context, _ domain.FileRef) (int, error) { return 0, nil }

func (s *stubIndex) RemoveDocument(_ string) int { return s.removed }

func (s *stubIndex) KeywordSearch(query string, _ bool) []domain.KeywordResult {
	s.lastQuery = query
	return s.keyword
}

func (s *stubIndex) SemanticSearch(_ context.Context, query string, topK int) ([]domain.SemanticResult, error) {
	s.lastQuery = query
	s.lastTopK = topK
	return s.ranked, nil
}

func (s *stubIndex) Stats() domain.IndexStats { return s.stats }

func (s *stubIndex) DocumentChunks(_ string) []domain.ChunkDetail { return nil }

// stubChat is a test double for driving.ChatService.
type stubChat struct {
	answer *domain.Answer
	err    error
}

func (s *stubChat) Ask(_ context.Context, question string, _ int) (*domain.Answer, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.answer != nil {
		return s.answer, nil
	}
	return &domain.Answer{Text: "stub answer", Question: question}, nil
}

func (s *stubChat) Healthy(_ context.Context) bool { return s.err == nil }

// stubLibrary is a test double for driving.LibraryService.
type stubLibrary struct {
	infos     []domain.DocumentInfo
	deleted   []string
	deleteErr error
}

func (s *stubLibrary) SaveUpload(_ string, _ []byte) (domain.FileRef, int64, error) {
	return domain.FileRef{}, 0, nil
}

func (s *stubLibrary) ListDocuments(_ context.Context) ([]domain.DocumentInfo, error) {
	return s.infos, nil
}

func (s *stubLibrary) DocumentInfo(_ context.Context, _ string) (*domain.DocumentInfo, error) {
	return nil, domain.ErrNotFound
}

func (s *stubLibrary) DocumentContent(_ context.Context, _ string) (string, error) { return "", nil }

func (s *stubLibrary) DocumentChunks(_ context.Context, _ string) ([]domain.SourceChunk, error) {
	return nil, nil
}

func (s *stubLibrary) DeleteDocument(filename string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, filename)
	return nil
}

// setupTestServices wires stub services into the command tree and returns
// the stubs plus a cleanup function restoring the previous state.
func setupTestServices() (*stubIndex, *stubChat, *stubLibrary, func()) {
	index := &stubIndex{}
	chat := &stubChat{}
	library := &stubLibrary{}

	previous := services
	services = &Services{
		Index:   index,
		Chat:    chat,
		Library: library,
		Config:  config.Default(),
	}

	return index, chat, library, func() {
		services = previous
		rootCmd.SetArgs(nil)
		searchSemantic = false
		searchTopK = 5
		searchCase = false
		searchJSON = false
		askTopK = 5
		askJSON = false
		statsJSON = false
		docsListJSON = false
	}
}
