package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// NormaliserRegistry selects the normaliser for an uploaded file by extension.
type NormaliserRegistry interface {
	// Extract returns the text of raw using the normaliser registered for
	// its extension. Unknown extensions fail with domain.ErrUnsupportedFormat.
	Extract(ctx context.Context, raw *domain.RawDocument) (string, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedExtensions returns all extensions that can be extracted.
	SupportedExtensions() []string
}
