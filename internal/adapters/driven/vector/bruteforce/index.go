// Package bruteforce provides a pure Go vector index that scores the query
// against every stored vector.
package bruteforce

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vectors row-major and answers queries by full scan.
type Index struct {
	mu        sync.RWMutex
	data      []float32
	size      int
	dimension int
}

// New creates an empty index. The dimension is fixed by the first Add.
func New() *Index {
	return &Index{}
}

// Name returns the backend name.
func (idx *Index) Name() string {
	return "bruteforce"
}

// Add appends a vector.
func (idx *Index) Add(_ context.Context, vector []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(vector) == 0 {
		return fmt.Errorf("bruteforce: empty vector: %w", domain.ErrInvalidInput)
	}
	if idx.dimension == 0 {
		idx.dimension = len(vector)
	} else if len(vector) != idx.dimension {
		return fmt.Errorf("bruteforce: got %d, index has %d: %w",
			len(vector), idx.dimension, domain.ErrDimensionMismatch)
	}

	idx.data = append(idx.data, vector...)
	idx.size++
	return nil
}

// Search returns the k best hits by inner product.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || idx.size == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("bruteforce: query has %d, index has %d: %w",
			len(query), idx.dimension, domain.ErrDimensionMismatch)
	}
	if k > idx.size {
		k = idx.size
	}

	// Min-heap of the k best seen so far; the root is the weakest keeper.
	h := make(hitHeap, 0, k)
	for i := 0; i < idx.size; i++ {
		hit := driven.VectorHit{Position: i, Similarity: dot(idx.row(i), query)}
		if len(h) < k {
			heap.Push(&h, hit)
			continue
		}
		if better(hit, h[0]) {
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}

	hits := []driven.VectorHit(h)
	sort.Slice(hits, func(i, j int) bool { return better(hits[i], hits[j]) })
	return hits, nil
}

// Size returns the number of stored vectors.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.size
}

// Dimension returns the established dimension.
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

// Close releases the stored vectors.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.data = nil
	idx.size = 0
	return nil
}

func (idx *Index) row(i int) []float32 {
	return idx.data[i*idx.dimension : (i+1)*idx.dimension]
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// better orders by similarity, then by earlier position.
func better(a, b driven.VectorHit) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	return a.Position < b.Position
}

type hitHeap []driven.VectorHit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(driven.VectorHit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
