package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultEmbedBatchSize is the number of chunks sent in one embedding request.
const DefaultEmbedBatchSize = 32

// Retriever turns text into ranked chunks using one ChunkIndex.
type Retriever struct {
	index     *ChunkIndex
	embedder  driven.EmbeddingService
	batchSize int
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithBatchSize sets how many chunks go into one EmbedBatch call.
func WithBatchSize(n int) RetrieverOption {
	return func(r *Retriever) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// NewRetriever creates a retriever over index.
func NewRetriever(index *ChunkIndex, embedder driven.EmbeddingService, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		index:     index,
		embedder:  embedder,
		batchSize: DefaultEmbedBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search embeds query and returns up to topK chunks, best first.
// An empty index yields no results and makes no embedding call.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	if r.index.Size() == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query %q: %w: %w", query, domain.ErrEmbeddingFailure, err)
	}

	results, err := r.index.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	logger.Debug("retrieved %d of %d chunks via %s", len(results), r.index.Size(), r.index.Backend())
	return results, nil
}

// Index embeds chunks in batches of at most batchSize and adds each batch
// before requesting the next. It stops at the first failure; chunks added
// before it stay indexed and are counted.
func (r *Retriever) Index(ctx context.Context, chunks []domain.Chunk) (int, error) {
	added := 0
	for start := 0; start < len(chunks); start += r.batchSize {
		end := min(start+r.batchSize, len(chunks))
		n, err := r.indexBatch(ctx, chunks[start:end])
		added += n
		if err != nil {
			return added, fmt.Errorf("chunks %d-%d: %w", start, end-1, err)
		}
	}
	return added, nil
}

func (r *Retriever) indexBatch(ctx context.Context, chunks []domain.Chunk) (int, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks",
			domain.ErrEmbeddingFailure, len(vectors), len(chunks))
	}

	for i := range chunks {
		if err := r.index.Add(ctx, vectors[i], chunks[i]); err != nil {
			return i, fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	return len(chunks), nil
}

// Size returns the number of indexed chunks.
func (r *Retriever) Size() int {
	return r.index.Size()
}

// Close releases the index.
func (r *Retriever) Close() error {
	return r.index.Close()
}
