package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view     ViewType
		expected string
	}{
		{ViewAsk, "ask"},
		{ViewDocuments, "documents"},
		{ViewDocContent, "doc_content"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
		{ViewType(-1), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.view.String())
		})
	}
}

func TestViewType_AskIsZeroValue(t *testing.T) {
	var v ViewType
	assert.Equal(t, ViewAsk, v)
}

func TestQuestionSubmitted(t *testing.T) {
	msg := QuestionSubmitted{Question: "Who?"}
	assert.Equal(t, "Who?", msg.Question)
	assert.Nil(t, msg.UseRAG)

	off := false
	msg = QuestionSubmitted{Question: "Who?", UseRAG: &off}
	require.NotNil(t, msg.UseRAG)
	assert.False(t, *msg.UseRAG)
}

func TestAnswerReceived(t *testing.T) {
	t.Run("with answer", func(t *testing.T) {
		msg := AnswerReceived{
			Question: "Where?",
			Answer:   &domain.Answer{Text: "Paris", Sources: []string{"a.txt"}},
		}
		require.NotNil(t, msg.Answer)
		assert.Equal(t, "Paris", msg.Answer.Text)
		assert.NoError(t, msg.Err)
	})

	t.Run("with error", func(t *testing.T) {
		msg := AnswerReceived{Question: "Where?", Err: domain.ErrSessionNotFound}
		assert.Nil(t, msg.Answer)
		assert.ErrorIs(t, msg.Err, domain.ErrSessionNotFound)
	})
}

func TestSessionLoaded(t *testing.T) {
	session := &domain.Session{ID: "s-1", Documents: []domain.Document{{Filename: "a.txt"}}}
	msg := SessionLoaded{Session: session}
	assert.Equal(t, []string{"a.txt"}, msg.Session.Filenames())

	msg = SessionLoaded{Err: errors.New("gone")}
	assert.Nil(t, msg.Session)
	assert.EqualError(t, msg.Err, "gone")
}

func TestDocumentSelected(t *testing.T) {
	msg := DocumentSelected{Document: domain.Document{Filename: "b.pdf", Text: "beta"}}
	assert.Equal(t, "b.pdf", msg.Document.Filename)
	assert.Equal(t, "beta", msg.Document.Text)
}

func TestViewChanged(t *testing.T) {
	msg := ViewChanged{View: ViewDocuments}
	assert.Equal(t, ViewDocuments, msg.View)
}

func TestErrorOccurred(t *testing.T) {
	err := errors.New("test error")
	msg := ErrorOccurred{Err: err}
	assert.Equal(t, err, msg.Err)
}

func TestQuit(t *testing.T) {
	var msg any = Quit{}
	_, ok := msg.(Quit)
	assert.True(t, ok)
}
