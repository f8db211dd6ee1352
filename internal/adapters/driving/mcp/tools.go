package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// KeywordSearchInput is the input schema for the keyword_search tool.
type KeywordSearchInput struct {
	Query         string `json:"query" jsonschema:"the text to match against document chunks"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"match case exactly (default false)"`
}

// KeywordSearchOutput is the output schema for the keyword_search tool.
type KeywordSearchOutput struct {
	Results []domain.KeywordResult `json:"results"`
	Count   int                    `json:"count"`
}

// SemanticSearchInput is the input schema for the semantic_search tool.
type SemanticSearchInput struct {
	Query string `json:"query" jsonschema:"the natural language search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of results (default 5)"`
}

// SemanticSearchOutput is the output schema for the semantic_search tool.
type SemanticSearchOutput struct {
	Results []domain.SemanticResult `json:"results"`
	Count   int                     `json:"count"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the natural language question about the documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks used as context (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string                  `json:"answer"`
	Context []domain.SemanticResult `json:"context"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "keyword_search",
		Description: "Find document chunks containing an exact text fragment",
	}, s.handleKeywordSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Find document chunks by meaning, ranked by embedding similarity",
	}, s.handleSemanticSearch)

	if s.ports.Chat != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using the indexed documents, with source citations",
		}, s.handleAsk)
	}
}

// handleKeywordSearch handles the keyword_search tool invocation.
func (s *Server) handleKeywordSearch(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input KeywordSearchInput,
) (*mcp.CallToolResult, KeywordSearchOutput, error) {
	results := s.ports.Index.KeywordSearch(input.Query, input.CaseSensitive)
	return nil, KeywordSearchOutput{Results: results, Count: len(results)}, nil
}

// handleSemanticSearch handles the semantic_search tool invocation.
func (s *Server) handleSemanticSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SemanticSearchInput,
) (*mcp.CallToolResult, SemanticSearchOutput, error) {
	results, err := s.ports.Index.SemanticSearch(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, SemanticSearchOutput{}, err
	}
	return nil, SemanticSearchOutput{Results: results, Count: len(results)}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Chat == nil {
		return nil, AskOutput{}, errors.New("chat service not configured")
	}

	answer, err := s.ports.Chat.Ask(ctx, input.Question, input.TopK)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: answer.Text, Context: answer.Context}, nil
}
