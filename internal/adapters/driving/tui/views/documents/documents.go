// Package documents provides the documents list view component for the TUI.
package documents

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// reservedLines covers the title, separator and help rows.
const reservedLines = 6

// View lists the documents of the active session.
type View struct {
	styles *styles.Styles
	list   *list.DocumentList

	sessionID string
	width     int
	height    int
	ready     bool
	err       error
}

// NewView creates a new documents view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		list:   list.NewDocumentList(s),
		width:  80,
		height: 24,
	}
}

// SetSession replaces the listed documents with the session's.
func (v *View) SetSession(session *domain.Session) {
	if session == nil {
		v.sessionID = ""
		v.list.SetDocuments(nil)
		return
	}
	v.sessionID = session.ID
	v.list.SetDocuments(session.Documents)
	v.err = nil
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SessionLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.SetSession(msg.Session)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		doc := v.list.SelectedDocument()
		if doc == nil {
			return v, nil
		}
		selected := *doc
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: selected}
		}
	case "esc", "tab":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewAsk}
		}
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	title := "Session documents"
	if v.sessionID != "" {
		title = fmt.Sprintf("Session %s", v.sessionID)
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	b.WriteString(v.list.View())
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] view text  [esc] back"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.list.SetDimensions(width, max(height-reservedLines, 2))
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.Document {
	return v.list.Documents()
}

// Selected returns the index of the selected document.
func (v *View) Selected() int {
	return v.list.Selected()
}

// SessionID returns the id of the listed session.
func (v *View) SessionID() string {
	return v.sessionID
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view has received its dimensions.
func (v *View) Ready() bool {
	return v.ready
}
