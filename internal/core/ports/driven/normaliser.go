package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Normaliser extracts plain text from one family of file formats.
type Normaliser interface {
	// Name identifies the normaliser for logging.
	Name() string

	// SupportedExtensions returns lower-cased extensions including the dot.
	SupportedExtensions() []string

	// Normalise extracts the text content of a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (string, error)
}
