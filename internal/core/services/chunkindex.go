package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// ChunkIndex pairs a vector backend with the chunks its rows belong to.
// Row i of the backend is always chunks[i]: both are appended under one
// lock and a failed backend Add leaves the chunk list untouched.
type ChunkIndex struct {
	mu      sync.RWMutex
	backend driven.VectorIndex
	chunks  []domain.Chunk
}

// NewChunkIndex wraps an empty backend.
func NewChunkIndex(backend driven.VectorIndex) *ChunkIndex {
	return &ChunkIndex{backend: backend}
}

// Add normalises vector and stores it with its chunk.
func (c *ChunkIndex) Add(ctx context.Context, vector []float32, chunk domain.Chunk) error {
	unit, err := normalize(vector)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.backend.Add(ctx, unit); err != nil {
		return err
	}
	c.chunks = append(c.chunks, chunk)
	return nil
}

// Search returns the k chunks most similar to query, best first.
func (c *ChunkIndex) Search(ctx context.Context, query []float32, k int) ([]domain.RetrievedChunk, error) {
	unit, err := normalize(query)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	hits, err := c.backend.Search(ctx, unit, k)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", c.backend.Name(), err)
	}

	results := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Position < 0 || hit.Position >= len(c.chunks) {
			return nil, fmt.Errorf("%s returned position %d of %d", c.backend.Name(), hit.Position, len(c.chunks))
		}
		results = append(results, domain.RetrievedChunk{
			Chunk: c.chunks[hit.Position],
			Score: hit.Similarity,
		})
	}
	return results, nil
}

// Chunk returns the chunk stored at position i.
func (c *ChunkIndex) Chunk(i int) (domain.Chunk, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.chunks) {
		return domain.Chunk{}, false
	}
	return c.chunks[i], true
}

// Size returns the number of stored chunks.
func (c *ChunkIndex) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chunks)
}

// VectorCount returns the backend's row count.
func (c *ChunkIndex) VectorCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend.Size()
}

// Backend returns the backend name.
func (c *ChunkIndex) Backend() string {
	return c.backend.Name()
}

// Close releases the backend.
func (c *ChunkIndex) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Close()
}
