package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// contextSeparator joins chunk and document texts into one context.
const contextSeparator = "\n\n"

// DefaultMaxContextChars bounds the full-context fallback.
const DefaultMaxContextChars = 20000

// AnswerService answers questions from a session's documents.
type AnswerService struct {
	sessions        *SessionStore
	extractor       driven.AnswerExtractor
	entities        driven.EntityExtractor
	ragDefault      bool
	maxContextChars int
}

// AnswerOption configures an AnswerService.
type AnswerOption func(*AnswerService)

// WithEntityExtractor attaches named entities of each answer.
// Pass nil to disable entity extraction.
func WithEntityExtractor(e driven.EntityExtractor) AnswerOption {
	return func(s *AnswerService) {
		s.entities = e
	}
}

// WithRAGDefault sets whether retrieval is used when a request does not say.
func WithRAGDefault(enabled bool) AnswerOption {
	return func(s *AnswerService) {
		s.ragDefault = enabled
	}
}

// WithMaxContextChars bounds the full-context fallback in characters.
func WithMaxContextChars(n int) AnswerOption {
	return func(s *AnswerService) {
		if n > 0 {
			s.maxContextChars = n
		}
	}
}

// NewAnswerService creates a new answer service.
func NewAnswerService(sessions *SessionStore, extractor driven.AnswerExtractor, opts ...AnswerOption) *AnswerService {
	s := &AnswerService{
		sessions:        sessions,
		extractor:       extractor,
		ragDefault:      true,
		maxContextChars: DefaultMaxContextChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer builds a context for the question, extracts the answer from it
// and attaches entities and sources.
func (s *AnswerService) Answer(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	logger.Section("Answer")

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("question is empty: %w", domain.ErrInvalidInput)
	}

	docs, err := s.sessions.Documents(req.SessionID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("session %q: %w", req.SessionID, domain.ErrSessionNotFound)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	useRAG := s.ragDefault
	if req.UseRAG != nil {
		useRAG = *req.UseRAG
	}
	logger.Debug("session=%s question=%q rag=%t top_k=%d", req.SessionID, question, useRAG, topK)

	var (
		contextText string
		sources     []string
		usedRAG     bool
	)

	if retriever := s.sessions.Retriever(req.SessionID); useRAG && retriever != nil && retriever.Size() > 0 {
		chunks, err := retriever.Search(ctx, question, topK)
		if err != nil {
			return nil, fmt.Errorf("retrieve for %q: %w", question, err)
		}
		if len(chunks) > 0 {
			contextText, sources = retrievedContext(chunks)
			usedRAG = true
		}
	}
	if !usedRAG {
		contextText, sources = fullContext(docs, s.maxContextChars)
	}
	logger.Debug("context: %d chars from %d sources (rag=%t)", len(contextText), len(sources), usedRAG)

	if s.extractor == nil {
		return nil, domain.ErrAnswerUnavailable
	}
	extraction, err := s.extractor.Extract(ctx, question, contextText)
	if err != nil {
		return nil, fmt.Errorf("question %q: %w: %w", question, domain.ErrAnswerExtractionFailure, err)
	}

	answer := &domain.Answer{
		Text:     extraction.Answer,
		Spans:    extraction.Spans,
		Entities: s.extractEntities(ctx, extraction.Answer),
		Sources:  sources,
		Context:  contextText,
		UsedRAG:  usedRAG,
	}
	if answer.Spans == nil {
		answer.Spans = []domain.EvidenceSpan{}
	}

	logger.Info("answered with %d spans, %d entities", len(answer.Spans), len(answer.Entities))
	return answer, nil
}

// extractEntities never fails the request; an extractor error is logged
// and yields no entities.
func (s *AnswerService) extractEntities(ctx context.Context, text string) []domain.Entity {
	if s.entities == nil || strings.TrimSpace(text) == "" {
		return []domain.Entity{}
	}

	entities, err := s.entities.ExtractEntities(ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("entity extraction cancelled")
		} else {
			logger.Warn("%v: %v", domain.ErrEntityExtractionFailure, err)
		}
		return []domain.Entity{}
	}
	if entities == nil {
		return []domain.Entity{}
	}
	return entities
}

// retrievedContext joins chunk texts in ranked order and collects their
// distinct sources in first-seen order.
func retrievedContext(chunks []domain.RetrievedChunk) (string, []string) {
	texts := make([]string, len(chunks))
	seen := make(map[string]bool, len(chunks))
	var sources []string

	for i, c := range chunks {
		texts[i] = c.Text
		src := c.Source()
		if !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}
	return strings.Join(texts, contextSeparator), sources
}

// fullContext joins all document texts in upload order, truncated to
// maxChars characters, and collects distinct filenames.
func fullContext(docs []domain.Document, maxChars int) (string, []string) {
	texts := make([]string, len(docs))
	seen := make(map[string]bool, len(docs))
	var sources []string

	for i, d := range docs {
		texts[i] = d.Text
		name := d.Filename
		if name == "" {
			name = domain.UnknownSource
		}
		if !seen[name] {
			seen[name] = true
			sources = append(sources, name)
		}
	}
	return truncateRunes(strings.Join(texts, contextSeparator), maxChars), sources
}

// truncateRunes cuts s to at most n characters without splitting one.
func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
