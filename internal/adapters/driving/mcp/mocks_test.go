package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result    *domain.IngestResult
	err       error
	sessionID string
	docs      []domain.Document
	files     []domain.RawDocument
}

func (m *mockIngestService) Upload(_ context.Context, sessionID string, files []domain.RawDocument) (*domain.IngestResult, error) {
	m.sessionID = sessionID
	m.files = files
	return m.result, m.err
}

func (m *mockIngestService) IngestText(_ context.Context, sessionID string, docs []domain.Document) (*domain.IngestResult, error) {
	m.sessionID = sessionID
	m.docs = docs
	return m.result, m.err
}

func (m *mockIngestService) SupportedExtensions() []string {
	return []string{".pdf", ".txt"}
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	err    error
	req    domain.AskRequest
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.AskRequest) (*domain.Answer, error) {
	m.req = req
	return m.answer, m.err
}

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	sessions []domain.Session
	err      error
}

func (m *mockSessionService) Get(_ context.Context, id string) (*domain.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			return &m.sessions[i], nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (m *mockSessionService) List(_ context.Context) ([]domain.Session, error) {
	return m.sessions, m.err
}

func (m *mockSessionService) Len() int {
	return len(m.sessions)
}

func newTestServer(t *testing.T, ports *Ports, opts ...ServerOption) *Server {
	t.Helper()
	if ports.Ingest == nil {
		ports.Ingest = &mockIngestService{}
	}
	if ports.Answer == nil {
		ports.Answer = &mockAnswerService{}
	}
	s, err := NewServer(ports, opts...)
	require.NoError(t, err)
	return s
}
