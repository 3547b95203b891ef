package services

import (
	"fmt"
	"math"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// normalize returns a unit-length copy of v.
// A zero or non-finite vector has no direction and is rejected.
func normalize(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("vector has no direction: %w", domain.ErrInvalidInput)
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}
