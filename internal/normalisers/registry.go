package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps file extensions to normalisers.
// A later registration for the same extension replaces the earlier one.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byExt: make(map[string]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser for each of its extensions.
func (r *Registry) Register(n driven.Normaliser) {
	if n == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range n.SupportedExtensions() {
		r.byExt[strings.ToLower(ext)] = n
	}
}

// Extract runs the normaliser registered for the file's extension.
// Failures other than ErrUnsupportedFormat wrap ErrExtractionFailure.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	ext := raw.Extension()
	r.mu.RLock()
	n, ok := r.byExt[ext]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: unsupported file type for %s. Allowed: %s",
			domain.ErrUnsupportedFormat, raw.Filename, strings.Join(r.SupportedExtensions(), ", "))
	}

	logger.Debug("extracting %s with %s", raw.Filename, n.Name())
	text, err := n.Normalise(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrExtractionFailure, raw.Filename, err)
	}
	return text, nil
}

// SupportedExtensions returns the registered extensions in sorted order.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
