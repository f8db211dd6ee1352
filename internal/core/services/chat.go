package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/logger"
)

// Ensure Chat implements the interface.
var _ driving.ChatService = (*Chat)(nil)

// Canned answers for the two degraded paths: retrieval found nothing, or
// the model returned an empty completion.
const (
	noContextAnswer = "I couldn't find any relevant information in your documents to answer this question. " +
		"Please try rephrasing your question or upload more documents."
	emptyModelAnswer = "I apologize, but I wasn't able to generate a proper response. " +
		"Please try asking your question differently."
)

const promptTemplate = `You are a helpful assistant that answers questions based on provided document context. Use only the information from the context below to answer the question. If the context doesn't contain enough information to fully answer the question, say so explicitly.

Context from documents:
%s

Question: %s

Instructions:
- Answer based only on the provided context
- Be concise but comprehensive
- If the context is insufficient, acknowledge this limitation
- Do not make assumptions or add information not in the context

Answer:`

// Chat answers questions over the indexed documents: it retrieves the top
// matching chunks, assembles them into a grounded prompt and asks the local
// language model for a completion.
type Chat struct {
	index     driving.IndexService
	generator driven.AnswerGenerator
}

// NewChat creates a chat service over the given index and answer generator.
func NewChat(index driving.IndexService, generator driven.AnswerGenerator) *Chat {
	return &Chat{index: index, generator: generator}
}

// Ask runs retrieval-augmented generation for one question. When retrieval
// finds nothing the canned no-context answer is returned without calling
// the model. Generation failures wrap domain.ErrAnswerUnavailable so the
// API layer can map them to a service-unavailable response.
func (c *Chat) Ask(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	logger.Info("Processing question: %q (top_k=%d)", question, topK)

	chunks, err := c.index.SemanticSearch(ctx, question, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(chunks) == 0 {
		logger.Warn("No relevant context found for question: %q", question)
		return &domain.Answer{
			Text:     noContextAnswer,
			Context:  []domain.SemanticResult{},
			Question: question,
		}, nil
	}

	logger.Debug("Retrieved %d relevant chunks for question", len(chunks))

	var contextText strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			contextText.WriteString("\n\n")
		}
		fmt.Fprintf(&contextText, "Source %d: %s", i+1, chunk.Snippet)
	}

	prompt := fmt.Sprintf(promptTemplate, contextText.String(), question)

	completion, err := c.generator.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnswerUnavailable, err)
	}

	answer := strings.TrimSpace(completion)
	if answer == "" {
		logger.Warn("Empty response received from model")
		answer = emptyModelAnswer
	}

	logger.Info("Generated answer for question: %q", question)
	return &domain.Answer{
		Text:     answer,
		Context:  chunks,
		Question: question,
	}, nil
}

// Healthy reports whether the answer generator is reachable.
func (c *Chat) Healthy(ctx context.Context) bool {
	return c.generator.Ping(ctx) == nil
}
