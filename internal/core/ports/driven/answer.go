package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnswerExtractor finds the answer to a question inside a context.
// Spans are offsets into the context string that was passed in.
type AnswerExtractor interface {
	// Extract returns the answer and at least one evidence span.
	Extract(ctx context.Context, question, context string) (*domain.Extraction, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// EntityExtractor finds named entities in text.
// This is an optional service - when nil, answers carry no entities.
type EntityExtractor interface {
	// ExtractEntities returns grouped entities with offsets into text.
	ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
