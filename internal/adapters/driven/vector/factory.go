// Package vector selects the vector index backend.
package vector

import (
	"fmt"

	"github.com/custodia-labs/docqa/cgo/flatip"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/bruteforce"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// New creates an empty index for the requested backend.
// IndexBackendAuto picks the exact index when it is compiled in and falls
// back to brute force otherwise.
func New(backend domain.IndexBackend) (driven.VectorIndex, error) {
	switch backend {
	case domain.IndexBackendExact:
		idx, err := flatip.New()
		if err != nil {
			return nil, fmt.Errorf("exact index: %w", err)
		}
		return idx, nil

	case domain.IndexBackendBruteForce:
		return bruteforce.New(), nil

	case domain.IndexBackendAuto, "":
		if flatip.Available() {
			if idx, err := flatip.New(); err == nil {
				return idx, nil
			}
		}
		logger.Warn("exact vector index unavailable, using brute force")
		return bruteforce.New(), nil

	default:
		return nil, fmt.Errorf("unknown index backend %q: %w", backend, domain.ErrInvalidInput)
	}
}

// Factory returns a constructor bound to one backend, resolving Auto once.
func Factory(backend domain.IndexBackend) (func() (driven.VectorIndex, error), error) {
	if !backend.IsValid() && backend != "" {
		return nil, fmt.Errorf("unknown index backend %q: %w", backend, domain.ErrInvalidInput)
	}
	if backend == domain.IndexBackendAuto || backend == "" {
		backend = domain.IndexBackendBruteForce
		if flatip.Available() {
			backend = domain.IndexBackendExact
		} else {
			logger.Warn("exact vector index unavailable, using brute force")
		}
	}
	logger.Debug("vector index backend: %s", backend)
	return func() (driven.VectorIndex, error) { return New(backend) }, nil
}
