//go:build cgo

package flatip

/*
#cgo CFLAGS: -O3

#include <stddef.h>

// flatip_search scores every row of data against q and keeps the k best in
// descending order. Ties keep the earlier row first. Returns the number of
// results written.
static int flatip_search(const float *data, int n, int dim, const float *q,
                         int k, int *out_idx, double *out_score) {
	int count = 0;
	for (int i = 0; i < n; i++) {
		const float *row = data + (size_t)i * dim;
		double s = 0.0;
		for (int j = 0; j < dim; j++) {
			s += (double)row[j] * (double)q[j];
		}
		if (count == k && !(s > out_score[k - 1])) {
			continue;
		}
		int pos = count < k ? count : k - 1;
		while (pos > 0 && s > out_score[pos - 1]) {
			out_idx[pos] = out_idx[pos - 1];
			out_score[pos] = out_score[pos - 1];
			pos--;
		}
		out_idx[pos] = i;
		out_score[pos] = s;
		if (count < k) {
			count++;
		}
	}
	return count;
}
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Available reports whether the native index is compiled in.
func Available() bool {
	return true
}

// Index provides exact inner-product search over stored vectors.
type Index struct {
	mu        sync.RWMutex
	data      []float32
	size      int
	dimension int
	closed    bool
}

// New creates an empty index. The dimension is fixed by the first Add.
func New() (*Index, error) {
	return &Index{}, nil
}

// Name returns the backend name.
func (idx *Index) Name() string {
	return "exact"
}

// Add appends a vector.
func (idx *Index) Add(_ context.Context, vector []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("flatip: index is closed")
	}
	if len(vector) == 0 {
		return fmt.Errorf("flatip: empty vector: %w", domain.ErrInvalidInput)
	}
	if idx.dimension == 0 {
		idx.dimension = len(vector)
	} else if len(vector) != idx.dimension {
		return fmt.Errorf("flatip: got %d, index has %d: %w",
			len(vector), idx.dimension, domain.ErrDimensionMismatch)
	}

	idx.data = append(idx.data, vector...)
	idx.size++
	return nil
}

// Search finds the k stored vectors with the highest inner product.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, errors.New("flatip: index is closed")
	}
	if k <= 0 || idx.size == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("flatip: query has %d, index has %d: %w",
			len(query), idx.dimension, domain.ErrDimensionMismatch)
	}
	if k > idx.size {
		k = idx.size
	}

	outIdx := make([]C.int, k)
	outScore := make([]C.double, k)

	n := C.flatip_search(
		(*C.float)(unsafe.Pointer(&idx.data[0])),
		C.int(idx.size),
		C.int(idx.dimension),
		(*C.float)(unsafe.Pointer(&query[0])),
		C.int(k),
		&outIdx[0],
		&outScore[0],
	)

	hits := make([]driven.VectorHit, int(n))
	for i := range hits {
		hits[i] = driven.VectorHit{
			Position:   int(outIdx[i]),
			Similarity: float64(outScore[i]),
		}
	}

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
	idx.closed = true
	return nil
}
