package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IngestService turns uploaded files into session documents.
type IngestService interface {
	// Upload extracts text from each file and appends the results to the
	// session. An empty sessionID creates a new session. Files that cannot
	// be extracted are reported in the result rather than failing the call.
	Upload(ctx context.Context, sessionID string, files []domain.RawDocument) (*domain.IngestResult, error)

	// IngestText appends already-extracted documents to the session.
	IngestText(ctx context.Context, sessionID string, docs []domain.Document) (*domain.IngestResult, error)

	// SupportedExtensions returns the file extensions Upload accepts.
	SupportedExtensions() []string
}
