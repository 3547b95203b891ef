// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// linesPerDocument is the rendered height of one entry.
const linesPerDocument = 2

// DocumentList displays session documents in a navigable list.
type DocumentList struct {
	documents []domain.Document
	selected  int
	styles    *styles.Styles
	width     int
	height    int
}

// NewDocumentList creates a new document list component.
func NewDocumentList(s *styles.Styles) *DocumentList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &DocumentList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the document list.
func (d *DocumentList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (d *DocumentList) Update(msg tea.Msg) (*DocumentList, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		d.MoveUp()
	case "down", "j":
		d.MoveDown()
	}
	return d, nil
}

// View renders the document list.
func (d *DocumentList) View() string {
	if len(d.documents) == 0 {
		return d.styles.Muted.Render("No documents in this session")
	}

	lines := make([]string, 0, len(d.documents)*linesPerDocument+2)
	lines = append(lines, d.styles.Subtitle.Render(fmt.Sprintf("Documents (%d)", len(d.documents))), "")

	visible := (d.height - 2) / linesPerDocument
	if visible < 1 {
		visible = 1
	}
	start := 0
	if d.selected >= visible {
		start = d.selected - visible + 1
	}
	end := min(start+visible, len(d.documents))

	for i := start; i < end; i++ {
		lines = append(lines, d.renderDocument(i, &d.documents[i]))
	}

	return strings.Join(lines, "\n")
}

// renderDocument formats one entry with a preview of its text.
func (d *DocumentList) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == d.selected {
		indicator = "> "
	}

	name := truncate(doc.Filename, max(d.width-24, 10))
	size := fmt.Sprintf("%d chars", doc.Chars())

	var nameLine string
	if index == d.selected {
		nameLine = d.styles.Selected.Render(indicator + name + "  " + size)
	} else {
		nameLine = d.styles.Normal.Render(indicator+name+"  ") + d.styles.Muted.Render(size)
	}

	preview := strings.Join(strings.Fields(doc.Text), " ")
	preview = truncate(preview, max(d.width-6, 20))

	return nameLine + "\n" + d.styles.Muted.Render("    "+preview)
}

// truncate shortens s to limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// SetDocuments replaces the listed documents and resets the selection.
func (d *DocumentList) SetDocuments(docs []domain.Document) {
	d.documents = docs
	d.selected = 0
}

// Documents returns the listed documents.
func (d *DocumentList) Documents() []domain.Document {
	return d.documents
}

// Selected returns the index of the selected document.
func (d *DocumentList) Selected() int {
	return d.selected
}

// SetSelected sets the selected index, ignoring out of range values.
func (d *DocumentList) SetSelected(index int) {
	if index >= 0 && index < len(d.documents) {
		d.selected = index
	}
}

// SelectedDocument returns the selected document, or nil if the list is empty.
func (d *DocumentList) SelectedDocument() *domain.Document {
	if len(d.documents) == 0 {
		return nil
	}
	return &d.documents[d.selected]
}

// MoveUp moves selection up.
func (d *DocumentList) MoveUp() {
	if d.selected > 0 {
		d.selected--
	}
}

// MoveDown moves selection down.
func (d *DocumentList) MoveDown() {
	if d.selected < len(d.documents)-1 {
		d.selected++
	}
}

// SetDimensions sets the component dimensions.
func (d *DocumentList) SetDimensions(width, height int) {
	d.width = width
	d.height = height
}

// Width returns the current width.
func (d *DocumentList) Width() int {
	return d.width
}

// Height returns the current height.
func (d *DocumentList) Height() int {
	return d.height
}

// Count returns the number of documents.
func (d *DocumentList) Count() int {
	return len(d.documents)
}

// IsEmpty returns whether the list is empty.
func (d *DocumentList) IsEmpty() bool {
	return len(d.documents) == 0
}
