package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnswerService answers questions against a session's documents.
type AnswerService interface {
	// Answer returns the extracted answer with evidence spans, entities and
	// the sources the context was built from.
	Answer(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
}
