package driven

import "context"

// VectorIndex stores unit-normalised vectors in insertion order and answers
// top-k inner-product queries. Row positions are stable: the n-th Add is
// always position n.
//
// Implementations:
//   - cgo/flatip: exact flat inner-product scan in C
//   - vector/bruteforce: pure Go dot product scan with heap selection
type VectorIndex interface {
	// Add appends a vector. The first call fixes the dimension; later
	// vectors of a different dimension fail with domain.ErrDimensionMismatch.
	Add(ctx context.Context, vector []float32) error

	// Search returns at most k hits ordered by descending similarity.
	// Equal similarities are ordered by position, earliest first.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Size returns the number of stored vectors.
	Size() int

	// Dimension returns the established dimension, or 0 before the first Add.
	Dimension() int

	// Name identifies the backend for logging.
	Name() string

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the insertion index of the matched vector.
	Position int

	// Similarity is the inner product, equal to cosine similarity for unit vectors.
	Similarity float64
}
