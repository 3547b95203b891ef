//go:build !cgo

package flatip

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Available reports whether the native index is compiled in.
func Available() bool {
	return false
}

// Index provides exact inner-product search over stored vectors.
// This is a stub for builds without CGO.
type Index struct{}

// New creates an empty index.
// This is a stub for builds without CGO.
func New() (*Index, error) {
	return nil, domain.ErrNotImplemented
}

// Name returns the backend name.
func (idx *Index) Name() string {
	return "exact"
}

// Add appends a vector.
func (idx *Index) Add(_ context.Context, _ []float32) error {
	return domain.ErrNotImplemented
}

// Search finds the k stored vectors with the highest inner product.
func (idx *Index) Search(_ context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	return nil, domain.ErrNotImplemented
}

// Size returns the number of stored vectors.
func (idx *Index) Size() int {
	return 0
}

// Dimension returns the established dimension.
func (idx *Index) Dimension() int {
	return 0
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}
