package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SessionService exposes read access to sessions.
type SessionService interface {
	// Get returns a snapshot of the session.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// List returns snapshots of all sessions.
	List(ctx context.Context) ([]domain.Session, error)

	// Len returns the number of sessions.
	Len() int
}
