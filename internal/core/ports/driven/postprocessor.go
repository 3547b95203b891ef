package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// PostProcessor turns a document into the chunks that get indexed.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process splits the document text. Every chunk carries the
	// document filename as its source metadata.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
