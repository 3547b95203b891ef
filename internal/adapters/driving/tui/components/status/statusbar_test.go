package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.Documents())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_InitAndUpdate(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_View_SessionSummary(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(200)
	bar.SetSession("0123456789abcdef", 2)
	bar.SetUseRAG(true)

	view := bar.View()

	assert.Contains(t, view, "session 01234567")
	assert.NotContains(t, view, "89abcdef")
	assert.Contains(t, view, "2 documents")
	assert.Contains(t, view, "retrieval on")
	assert.Contains(t, view, "enter: ask")
}

func TestStatusBar_View_FullText(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(200)
	bar.SetSession("short", 1)

	view := bar.View()

	assert.Contains(t, view, "session short")
	assert.Contains(t, view, "1 document")
	assert.NotContains(t, view, "1 documents")
	assert.Contains(t, view, "full text")
}

func TestStatusBar_View_States(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		message  string
		contains string
	}{
		{"asking", StateAsking, "", "Thinking..."},
		{"error with message", StateError, "boom", "Error: boom"},
		{"error without message", StateError, "", "Error"},
		{"help", StateHelp, "", "Help"},
		{"answered shows scroll hint", StateAnswered, "", "scroll up"},
		{"ready with message", StateReady, "retrieval disabled", "retrieval disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(200)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)

			assert.Contains(t, bar.View(), tt.contains)
		})
	}
}

func TestStatusBar_NarrowWidth(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(10)

	assert.NotEmpty(t, bar.View())
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetSession("s-1", 3)
	bar.SetState(StateError)
	bar.SetMessage("boom")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, "s-1", bar.SessionID())
	assert.Equal(t, 3, bar.Documents())
}

func TestPluralise(t *testing.T) {
	assert.Equal(t, "0 documents", pluralise(0, "document"))
	assert.Equal(t, "1 document", pluralise(1, "document"))
	assert.Equal(t, "5 documents", pluralise(5, "document"))
}
