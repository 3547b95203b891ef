package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/bruteforce"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

// keywordEmbedder counts vocabulary words; the last dimension is a small
// constant so no text embeds to the zero vector.
type keywordEmbedder struct {
	vocab      []string
	err        error
	batchErr   error
	badAt      int   // EmbedBatch returns a vector of the wrong dimension at this index when > 0
	maxBatch   int   // EmbedBatch rejects larger batches when > 0
	failFrom   int32 // EmbedBatch fails from this call number on when > 0
	mu         sync.Mutex
	batchSizes []int
	embedCalls atomic.Int32
	batchCalls atomic.Int32
}

func newKeywordEmbedder(vocab ...string) *keywordEmbedder {
	return &keywordEmbedder{vocab: vocab}
}

func (e *keywordEmbedder) vector(text string) []float32 {
	v := make([]float32, len(e.vocab)+1)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, "?.,!")
		for i, term := range e.vocab {
			if w == term {
				v[i]++
			}
		}
	}
	v[len(e.vocab)] = 0.01
	return v
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.embedCalls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	call := e.batchCalls.Add(1)
	e.mu.Lock()
	e.batchSizes = append(e.batchSizes, len(texts))
	e.mu.Unlock()
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	if e.failFrom > 0 && call >= e.failFrom {
		return nil, fmt.Errorf("call %d rejected", call)
	}
	if e.maxBatch > 0 && len(texts) > e.maxBatch {
		return nil, fmt.Errorf("batch of %d exceeds %d inputs", len(texts), e.maxBatch)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
		if e.badAt > 0 && i == e.badAt {
			out[i] = append(out[i], 1)
		}
	}
	return out, nil
}

func (e *keywordEmbedder) Dimensions() int              { return len(e.vocab) + 1 }
func (e *keywordEmbedder) ModelName() string            { return "keyword" }
func (e *keywordEmbedder) Ping(_ context.Context) error { return nil }
func (e *keywordEmbedder) Close() error                 { return nil }

// recordingExtractor answers with the first word of the context.
type recordingExtractor struct {
	mu       sync.Mutex
	question string
	context  string
	err      error
	noSpans  bool
}

func (r *recordingExtractor) Extract(_ context.Context, question, ctxText string) (*domain.Extraction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.question = question
	r.context = ctxText
	if r.err != nil {
		return nil, r.err
	}
	answer := ""
	if f := strings.Fields(ctxText); len(f) > 0 {
		answer = f[0]
	}
	ext := &domain.Extraction{Answer: answer}
	if !r.noSpans {
		start := strings.Index(ctxText, answer)
		ext.Spans = []domain.EvidenceSpan{{Start: start, End: start + len(answer), Score: 0.9}}
	}
	return ext, nil
}

func (r *recordingExtractor) lastContext() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.context
}

func (r *recordingExtractor) ModelName() string { return "recording" }
func (r *recordingExtractor) Close() error      { return nil }

type stubEntities struct {
	entities []domain.Entity
	err      error
	calls    atomic.Int32
}

func (s *stubEntities) ExtractEntities(_ context.Context, _ string) ([]domain.Entity, error) {
	s.calls.Add(1)
	return s.entities, s.err
}

func (s *stubEntities) ModelName() string { return "stub-ner" }
func (s *stubEntities) Close() error      { return nil }

// extRegistry extracts .txt content verbatim, fails .bad and rejects the rest.
type extRegistry struct{}

func (extRegistry) Extract(_ context.Context, raw *domain.RawDocument) (string, error) {
	switch filepath.Ext(raw.Filename) {
	case ".txt":
		return string(raw.Content), nil
	case ".bad":
		return "", errors.New("tool crashed")
	default:
		return "", domain.ErrUnsupportedFormat
	}
}

func (extRegistry) Register(driven.Normaliser)    {}
func (extRegistry) SupportedExtensions() []string { return []string{".txt"} }

func bruteForceFactory() (driven.VectorIndex, error) {
	return bruteforce.New(), nil
}

func newTestStore(embedder driven.EmbeddingService, opts ...SessionStoreOption) *SessionStore {
	return NewSessionStore(chunker.New(), embedder, bruteForceFactory, opts...)
}
