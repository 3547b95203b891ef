// Package tui provides an interactive terminal user interface for asking
// questions about a session's documents. It implements a driving adapter
// following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Answer answers questions against the session.
	Answer driving.AnswerService

	// Sessions loads the session's documents.
	Sessions driving.SessionService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(answer driving.AnswerService, sessions driving.SessionService) *Ports {
	return &Ports{
		Answer:   answer,
		Sessions: sessions,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	return nil
}
