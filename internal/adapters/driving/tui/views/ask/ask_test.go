package ask

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockAnswerService implements driving.AnswerService for testing.
type mockAnswerService struct {
	answer *domain.Answer
	err    error
	req    domain.AskRequest
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.AskRequest) (*domain.Answer, error) {
	m.req = req
	return m.answer, m.err
}

func sampleAnswer() *domain.Answer {
	return &domain.Answer{
		Text:     "Paris",
		Spans:    []domain.EvidenceSpan{{Start: 25, End: 30, Score: 0.9}},
		Entities: []domain.Entity{{EntityGroup: "LOC", Word: "Paris", Score: 0.99}},
		Sources:  []string{"geo.txt"},
		Context:  "The capital of France is Paris.",
		UsedRAG:  true,
	}
}

func newReadyView(svc *mockAnswerService) *View {
	v := NewView(nil, nil, svc, true)
	v.SetDimensions(100, 40)
	v.SetSession(&domain.Session{ID: "sess-1", Documents: []domain.Document{{Filename: "geo.txt"}}})
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil, false)

	require.NotNil(t, v)
	assert.False(t, v.Ready())
	assert.False(t, v.UseRAG())
	assert.False(t, v.Asking())
	assert.Equal(t, 0, v.Exchanges())
	assert.Nil(t, v.LastAnswer())
	assert.Equal(t, "Initialising...", v.View())
	assert.NotNil(t, v.Init())
}

func TestView_WithContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")

	v := NewView(nil, nil, nil, true).WithContext(ctx)

	assert.Equal(t, ctx, v.ctx)
}

func TestView_TypingGoesToInput(t *testing.T) {
	v := newReadyView(&mockAnswerService{})

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi?")})

	assert.Equal(t, "hi?", v.Question())
}

func TestView_SubmitEmptyQuestion(t *testing.T) {
	v := newReadyView(&mockAnswerService{})
	v.SetQuestion("   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, 0, v.Exchanges())
}

func TestView_SubmitAndAnswer(t *testing.T) {
	svc := &mockAnswerService{answer: sampleAnswer()}
	v := newReadyView(svc)
	v.SetQuestion("  What is the capital?  ")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.True(t, v.Asking())
	assert.Empty(t, v.Question())
	assert.Equal(t, status.StateAsking, v.StatusState())
	assert.Contains(t, v.View(), "Thinking...")

	msg, ok := cmd().(messages.AnswerReceived)
	require.True(t, ok)
	assert.Equal(t, "What is the capital?", msg.Question)
	assert.Equal(t, "sess-1", svc.req.SessionID)
	require.NotNil(t, svc.req.UseRAG)
	assert.True(t, *svc.req.UseRAG)

	v, _ = v.Update(msg)

	assert.False(t, v.Asking())
	assert.Equal(t, status.StateAnswered, v.StatusState())
	assert.Equal(t, "Paris", v.LastAnswer().Text)

	out := v.View()
	assert.Contains(t, out, "Q: What is the capital?")
	assert.Contains(t, out, "A: Paris")
	assert.Contains(t, out, "France is")
	assert.Contains(t, out, "Sources: geo.txt")
	assert.Contains(t, out, "Entities: Paris (LOC)")
	assert.Contains(t, out, "(retrieval)")
}

func TestView_SubmitWhileAsking(t *testing.T) {
	v := newReadyView(&mockAnswerService{answer: sampleAnswer()})
	v.SetQuestion("first")
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	v.SetQuestion("second")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, 1, v.Exchanges())
}

func TestView_AnswerErrors(t *testing.T) {
	tests := []struct {
		name    string
		view    func() *View
		wantErr error
	}{
		{
			name: "service error",
			view: func() *View {
				return newReadyView(&mockAnswerService{err: domain.ErrSessionNotFound})
			},
			wantErr: domain.ErrSessionNotFound,
		},
		{
			name: "no service",
			view: func() *View {
				v := NewView(nil, nil, nil, true)
				v.SetDimensions(100, 40)
				v.SetSession(&domain.Session{ID: "s"})
				return v
			},
			wantErr: ErrNoAnswerService,
		},
		{
			name: "no session",
			view: func() *View {
				v := NewView(nil, nil, &mockAnswerService{}, true)
				v.SetDimensions(100, 40)
				return v
			},
			wantErr: ErrNoSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.view()
			v.SetQuestion("why?")

			v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
			require.NotNil(t, cmd)
			msg := cmd().(messages.AnswerReceived)
			assert.True(t, errors.Is(msg.Err, tt.wantErr))

			v, _ = v.Update(msg)

			assert.False(t, v.Asking())
			assert.Equal(t, status.StateError, v.StatusState())
			assert.Equal(t, tt.wantErr.Error(), v.StatusMessage())
			assert.Contains(t, v.View(), "Error: "+tt.wantErr.Error())
		})
	}
}

func TestView_EmptyAnswer(t *testing.T) {
	v := newReadyView(&mockAnswerService{answer: &domain.Answer{}})
	v.SetQuestion("anything?")
	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	v, _ = v.Update(cmd())

	out := v.View()
	assert.Contains(t, out, "No answer found")
	assert.Contains(t, out, "(full text)")
}

func TestView_ToggleRAG(t *testing.T) {
	svc := &mockAnswerService{answer: sampleAnswer()}
	v := newReadyView(svc)

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.False(t, v.UseRAG())

	v.SetQuestion("q")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cmd()

	require.NotNil(t, svc.req.UseRAG)
	assert.False(t, *svc.req.UseRAG)
}

func TestView_TabShowsDocuments(t *testing.T) {
	v := newReadyView(&mockAnswerService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyTab})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func TestView_EscClearsInput(t *testing.T) {
	v := newReadyView(&mockAnswerService{})
	v.SetQuestion("draft")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.Empty(t, v.Question())
}

func TestView_SessionLoaded(t *testing.T) {
	v := NewView(nil, nil, nil, true)

	v, _ = v.Update(messages.SessionLoaded{Session: &domain.Session{ID: "abc"}})
	assert.Equal(t, "abc", v.SessionID())

	v, _ = v.Update(messages.SessionLoaded{Err: domain.ErrSessionNotFound})
	assert.Equal(t, status.StateError, v.StatusState())
	assert.Equal(t, "abc", v.SessionID())
}

func TestView_ErrorOccurred(t *testing.T) {
	v := newReadyView(&mockAnswerService{})

	v, _ = v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.Equal(t, status.StateError, v.StatusState())
	assert.Equal(t, "boom", v.StatusMessage())
}

func TestView_Scrolling(t *testing.T) {
	v := newReadyView(&mockAnswerService{answer: &domain.Answer{Text: "yes"}})
	v.SetDimensions(100, 12) // 4 transcript lines

	for i := 0; i < 5; i++ {
		v.SetQuestion(fmt.Sprintf("question %d", i))
		var cmd tea.Cmd
		v, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		v, _ = v.Update(cmd())
	}

	bottom := v.ScrollOffset()
	require.Positive(t, bottom)
	assert.Contains(t, v.View(), "question 4")

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, bottom-4, v.ScrollOffset())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, bottom, v.ScrollOffset())
}
