// Package ratelimit provides token bucket decorators for model capabilities.
// A provider's requests-per-second budget is shared by every call made
// through the same Limiter.
package ratelimit

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure the decorators implement the interfaces.
var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.AnswerExtractor  = (*AnswerExtractor)(nil)
	_ driven.EntityExtractor  = (*EntityExtractor)(nil)
)

// Limiter throttles outbound requests.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter returns a limiter allowing rps sustained requests per second,
// or nil when rps <= 0 (unlimited).
func NewLimiter(rps float64) *Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(math.Ceil(rps))
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may proceed. A nil Limiter never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return nil
}

// EmbeddingService throttles an embedding service. A batch counts as one request.
type EmbeddingService struct {
	driven.EmbeddingService
	limiter *Limiter
}

// Embedding wraps svc; it returns svc unchanged when limiter is nil.
func Embedding(svc driven.EmbeddingService, limiter *Limiter) driven.EmbeddingService {
	if limiter == nil || svc == nil {
		return svc
	}
	return &EmbeddingService{EmbeddingService: svc, limiter: limiter}
}

// Embed waits for a token then delegates.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a token then delegates.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.EmbeddingService.EmbedBatch(ctx, texts)
}

// AnswerExtractor throttles an answer extractor.
type AnswerExtractor struct {
	driven.AnswerExtractor
	limiter *Limiter
}

// Answer wraps ext; it returns ext unchanged when limiter is nil.
func Answer(ext driven.AnswerExtractor, limiter *Limiter) driven.AnswerExtractor {
	if limiter == nil || ext == nil {
		return ext
	}
	return &AnswerExtractor{AnswerExtractor: ext, limiter: limiter}
}

// Extract waits for a token then delegates.
func (a *AnswerExtractor) Extract(ctx context.Context, question, context string) (*domain.Extraction, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return a.AnswerExtractor.Extract(ctx, question, context)
}

// EntityExtractor throttles an entity extractor.
type EntityExtractor struct {
	driven.EntityExtractor
	limiter *Limiter
}

// Entities wraps ext; it returns ext unchanged when limiter is nil.
func Entities(ext driven.EntityExtractor, limiter *Limiter) driven.EntityExtractor {
	if limiter == nil || ext == nil {
		return ext
	}
	return &EntityExtractor{EntityExtractor: ext, limiter: limiter}
}

// ExtractEntities waits for a token then delegates.
func (e *EntityExtractor) ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.EntityExtractor.ExtractEntities(ctx, text)
}
