// Package cached provides an EmbeddingService decorator that memoises
// vectors in an in-process LRU and, optionally, a persistent EmbeddingCache.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultSize is the number of vectors kept in memory.
const DefaultSize = 4096

// EmbeddingService serves repeated texts from cache. Cached vectors are
// shared and must not be modified by callers.
type EmbeddingService struct {
	next  driven.EmbeddingService
	mem   *lru.Cache[string, []float32]
	store driven.EmbeddingCache
}

// Option configures an EmbeddingService.
type Option func(*EmbeddingService)

// WithStore adds a persistent cache consulted after the LRU.
func WithStore(store driven.EmbeddingCache) Option {
	return func(s *EmbeddingService) {
		s.store = store
	}
}

// New wraps next with an LRU of size entries (DefaultSize when <= 0).
func New(next driven.EmbeddingService, size int, opts ...Option) (*EmbeddingService, error) {
	if size <= 0 {
		size = DefaultSize
	}
	mem, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	s := &EmbeddingService{next: next, mem: mem}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Key returns the cache key for text under model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return model + ":" + hex.EncodeToString(sum[:])
}

// Embed returns the cached vector for text or computes and stores it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(s.next.ModelName(), text)
	if vec, ok := s.lookup(ctx, key); ok {
		return vec, nil
	}

	vec, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, key, vec)
	return vec, nil
}

// EmbedBatch embeds only the texts missing from cache, in one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := s.next.ModelName()
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var missing []string
	var missingAt []int
	for i, text := range texts {
		keys[i] = Key(model, text)
		if vec, ok := s.lookup(ctx, keys[i]); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingAt = append(missingAt, i)
	}

	if len(missing) == 0 {
		logger.Debug("embedding cache: %d/%d hits", len(texts), len(texts))
		return out, nil
	}

	vecs, err := s.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedding cache: got %d embeddings for %d inputs", len(vecs), len(missing))
	}
	for j, vec := range vecs {
		i := missingAt[j]
		out[i] = vec
		s.remember(ctx, keys[i], vec)
	}

	logger.Debug("embedding cache: %d/%d hits", len(texts)-len(missing), len(texts))
	return out, nil
}

func (s *EmbeddingService) lookup(ctx context.Context, key string) ([]float32, bool) {
	if vec, ok := s.mem.Get(key); ok {
		return vec, true
	}
	if s.store == nil {
		return nil, false
	}
	vec, ok := s.store.Get(ctx, key)
	if ok {
		s.mem.Add(key, vec)
	}
	return vec, ok
}

func (s *EmbeddingService) remember(ctx context.Context, key string, vec []float32) {
	s.mem.Add(key, vec)
	if s.store == nil {
		return
	}
	if err := s.store.Put(ctx, key, vec); err != nil {
		logger.Warn("embedding cache: persist failed: %v", err)
	}
}

// Len returns the number of vectors held in memory.
func (s *EmbeddingService) Len() int {
	return s.mem.Len()
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping validates the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close releases the wrapped service and the persistent store.
func (s *EmbeddingService) Close() error {
	err := s.next.Close()
	if s.store != nil {
		if cerr := s.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
