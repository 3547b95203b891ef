// Package llm provides an AnswerExtractor on top of any LLMService.
//
// The model is asked for a verbatim quote from the context. The quote is
// located in the context to produce the evidence span, so answers carry
// offsets just like an extractive QA model's.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Extractor implements the interfaces.
var (
	_ driven.AnswerExtractor  = (*Extractor)(nil)
	_ driven.PromptStoreAware = (*Extractor)(nil)
)

// Span scores by how the quote was found in the context.
const (
	ScoreExact       = 1.0
	ScoreFoldedCase  = 0.8
	ScoreNotLocated  = 0.0
	defaultMaxTokens = 256
)

// Fallback prompts used without a PromptStore.
const (
	defaultSystemPrompt = `You answer questions about documents using only the context you are given.
Reply with one JSON object and nothing else:
{"answer": "<the shortest passage copied verbatim from the context that answers the question>"}
If the context does not contain the answer, reply {"answer": ""}.`

	defaultUserPrompt = "Context:\n%s\n\nQuestion: %s"
)

// Extractor answers questions by prompting an LLM.
type Extractor struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	maxTokens   int
}

// New creates an extractor over svc.
func New(svc driven.LLMService) *Extractor {
	return &Extractor{llm: svc, maxTokens: defaultMaxTokens}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (e *Extractor) SetPromptStore(store driven.PromptStore) {
	e.promptStore = store
}

// Extract asks the LLM for a quote answering question and locates it in context.
func (e *Extractor) Extract(ctx context.Context, question, context string) (*domain.Extraction, error) {
	messages := []driven.ChatMessage{
		{Role: "system", Content: e.loadPrompt(driven.PromptAnswerSystem, defaultSystemPrompt)},
		{Role: "user", Content: fmt.Sprintf(e.loadPrompt(driven.PromptAnswerUser, defaultUserPrompt), context, question)},
	}

	reply, err := e.llm.Chat(ctx, messages, driven.ChatOptions{MaxTokens: e.maxTokens, JSON: true})
	if err != nil {
		return nil, fmt.Errorf("llm answer: %w", err)
	}

	answer := parseAnswer(reply)
	if answer == "" {
		return &domain.Extraction{Answer: "", Spans: []domain.EvidenceSpan{}}, nil
	}

	span := locate(context, answer)
	if span.Score == ScoreNotLocated {
		logger.Debug("llm answer %q not found verbatim in context", answer)
	}
	return &domain.Extraction{Answer: answer, Spans: []domain.EvidenceSpan{span}}, nil
}

// parseAnswer reads {"answer": "..."} from reply, tolerating code fences and
// surrounding prose. A reply without JSON is taken as the answer itself.
func parseAnswer(reply string) string {
	reply = strings.TrimSpace(reply)

	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start >= 0 && end > start {
		var out struct {
			Answer *string `json:"answer"`
		}
		if err := json.Unmarshal([]byte(reply[start:end+1]), &out); err == nil && out.Answer != nil {
			return strings.TrimSpace(*out.Answer)
		}
	}

	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	return strings.Trim(strings.TrimSpace(reply), `"`)
}

// locate finds answer in text and returns character offsets, matching
// the rune offsets reported by extractive QA models.
func locate(text, answer string) domain.EvidenceSpan {
	if i := strings.Index(text, answer); i >= 0 {
		return runeSpan(text, i, len(answer), ScoreExact)
	}
	if i := indexFold(text, answer); i >= 0 {
		return runeSpan(text, i, len(answer), ScoreFoldedCase)
	}
	return domain.EvidenceSpan{Score: ScoreNotLocated}
}

func runeSpan(s string, byteStart, byteLen int, score float64) domain.EvidenceSpan {
	start := utf8.RuneCountInString(s[:byteStart])
	end := start + utf8.RuneCountInString(s[byteStart:byteStart+byteLen])
	return domain.EvidenceSpan{Start: start, End: end, Score: score}
}

// indexFold is a case-insensitive strings.Index. The match is assumed to
// have the same byte length as substr.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

func (e *Extractor) loadPrompt(name, fallback string) string {
	if e.promptStore == nil {
		return fallback
	}
	prompt, err := e.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// ModelName returns the name of the underlying LLM.
func (e *Extractor) ModelName() string {
	return e.llm.ModelName()
}

// Ping checks the underlying LLM.
func (e *Extractor) Ping(ctx context.Context) error {
	return e.llm.Ping(ctx)
}

// Close releases the underlying LLM.
func (e *Extractor) Close() error {
	return e.llm.Close()
}
