// Package ask provides the main question and answer view for the TUI.
package ask

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

const (
	// reservedLines covers the header, input and status bar rows.
	reservedLines = 8

	// excerptRadius is how many runes of context surround highlighted evidence.
	excerptRadius = 80
)

// exchange is one question and its outcome.
type exchange struct {
	question string
	answer   *domain.Answer
	err      error
}

func (e *exchange) pending() bool {
	return e.answer == nil && e.err == nil
}

// View is the question input with a scrollable answer transcript.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	statusbar *status.Bar

	answerService driving.AnswerService
	ctx           context.Context

	sessionID    string
	useRAG       bool
	exchanges    []exchange
	scrollOffset int
	width        int
	height       int
	ready        bool
}

// NewView creates a new ask view. useRAG is the initial retrieval mode.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	answerService driving.AnswerService,
	useRAG bool,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetUseRAG(useRAG)

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQuestionInput(s),
		statusbar:     bar,
		answerService: answerService,
		ctx:           context.Background(),
		useRAG:        useRAG,
		width:         80,
		height:        24,
	}
}

// WithContext sets the context for answer requests.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// SetSession sets the session questions are asked against.
func (v *View) SetSession(session *domain.Session) {
	if session == nil {
		return
	}
	v.sessionID = session.ID
	v.statusbar.SetSession(session.ID, len(session.Documents))
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.SessionLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.SetSession(msg.Session)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()

	switch {
	case keymap.Matches(k, v.keymap.Ask):
		return v, v.submit()

	case keymap.Matches(k, v.keymap.ToggleRAG):
		v.useRAG = !v.useRAG
		v.statusbar.SetUseRAG(v.useRAG)
		return v, nil

	case keymap.Matches(k, v.keymap.Documents):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}

	case keymap.Matches(k, v.keymap.ScrollUp):
		v.scrollTo(v.scrollOffset - v.visibleLines())
		return v, nil

	case keymap.Matches(k, v.keymap.ScrollDown):
		v.scrollTo(v.scrollOffset + v.visibleLines())
		return v, nil

	case keymap.Matches(k, v.keymap.Back):
		v.input.Reset()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit starts answering the typed question.
func (v *View) submit() tea.Cmd {
	if v.Asking() {
		return nil
	}
	question := v.input.Question()
	if question == "" {
		return nil
	}

	v.exchanges = append(v.exchanges, exchange{question: question})
	v.input.Reset()
	v.statusbar.SetState(status.StateAsking)
	v.statusbar.SetMessage("")
	v.scrollTo(v.maxScrollOffset())

	return v.ask(question)
}

// ask returns a command that calls the answer service.
func (v *View) ask(question string) tea.Cmd {
	svc := v.answerService
	ctx := v.ctx
	useRAG := v.useRAG
	req := domain.AskRequest{
		SessionID: v.sessionID,
		Question:  question,
		UseRAG:    &useRAG,
	}

	return func() tea.Msg {
		if svc == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoAnswerService}
		}
		if req.SessionID == "" {
			return messages.AnswerReceived{Question: question, Err: ErrNoSession}
		}
		answer, err := svc.Answer(ctx, req)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

// handleAnswer resolves the pending exchange.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	if n := len(v.exchanges); n > 0 && v.exchanges[n-1].pending() {
		last := &v.exchanges[n-1]
		last.answer = msg.Answer
		last.err = msg.Err
		if last.answer == nil && last.err == nil {
			last.answer = &domain.Answer{}
		}
	}

	if msg.Err != nil {
		v.setError(msg.Err)
	} else {
		v.statusbar.SetState(status.StateAnswered)
		v.statusbar.SetMessage("")
	}
	v.scrollTo(v.maxScrollOffset())
}

func (v *View) setError(err error) {
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// transcript renders every exchange as lines.
func (v *View) transcript() []string {
	if len(v.exchanges) == 0 {
		return []string{v.styles.Muted.Render("Ask a question to get started. Answers cite the documents they came from.")}
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	blocks := make([]string, 0, len(v.exchanges))
	for i := range v.exchanges {
		blocks = append(blocks, v.renderExchange(&v.exchanges[i], wrap))
	}
	return strings.Split(strings.Join(blocks, "\n\n"), "\n")
}

func (v *View) renderExchange(e *exchange, wrap lipgloss.Style) string {
	lines := []string{v.styles.Question.Render(wrap.Render("Q: " + e.question))}

	switch {
	case e.pending():
		lines = append(lines, v.styles.Muted.Render("Thinking..."))
		return strings.Join(lines, "\n")
	case e.err != nil:
		lines = append(lines, v.styles.Error.Render(wrap.Render("Error: "+e.err.Error())))
		return strings.Join(lines, "\n")
	}

	a := e.answer
	if a.Text == "" {
		lines = append(lines, v.styles.Muted.Render("No answer found in the documents."))
	} else {
		lines = append(lines, v.styles.Answer.Render(wrap.Render("A: "+a.Text)))
	}

	if evidence := v.renderEvidence(a, wrap); evidence != "" {
		lines = append(lines, evidence)
	}
	if len(a.Sources) > 0 {
		lines = append(lines, v.styles.Source.Render(wrap.Render("Sources: "+strings.Join(a.Sources, ", "))))
	}
	if len(a.Entities) > 0 {
		lines = append(lines, v.styles.Muted.Render(wrap.Render("Entities: "+formatEntities(a.Entities))))
	}

	mode := "full text"
	if a.UsedRAG {
		mode = "retrieval"
	}
	lines = append(lines, v.styles.Muted.Render("("+mode+")"))

	return strings.Join(lines, "\n")
}

// renderEvidence shows the first span in its surrounding context.
func (v *View) renderEvidence(a *domain.Answer, wrap lipgloss.Style) string {
	before, match, after, ok := a.Excerpt(excerptRadius)
	if !ok {
		return ""
	}
	text := v.styles.Muted.Render(before) + v.styles.Evidence.Render(match) + v.styles.Muted.Render(after)
	return wrap.Render("  " + text)
}

func formatEntities(entities []domain.Entity) string {
	parts := make([]string, 0, len(entities))
	for _, e := range entities {
		parts = append(parts, fmt.Sprintf("%s (%s)", e.Word, e.EntityGroup))
	}
	return strings.Join(parts, ", ")
}

// visibleLines returns the number of transcript lines that fit.
func (v *View) visibleLines() int {
	return max(v.height-reservedLines, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.transcript())-v.visibleLines(), 0)
}

func (v *View) scrollTo(offset int) {
	v.scrollOffset = max(0, min(offset, v.maxScrollOffset()))
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	lines := v.transcript()
	end := min(v.scrollOffset+v.visibleLines(), len(lines))
	start := min(v.scrollOffset, end)

	sections := []string{
		v.styles.Title.Render("docqa"),
		"",
		strings.Join(lines[start:end], "\n"),
		"",
		v.input.View(),
		"",
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.scrollTo(v.scrollOffset)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Asking reports whether a question is awaiting its answer.
func (v *View) Asking() bool {
	n := len(v.exchanges)
	return n > 0 && v.exchanges[n-1].pending()
}

// UseRAG returns the retrieval mode for the next question.
func (v *View) UseRAG() bool {
	return v.useRAG
}

// SessionID returns the session questions are asked against.
func (v *View) SessionID() string {
	return v.sessionID
}

// Exchanges returns the number of questions asked.
func (v *View) Exchanges() int {
	return len(v.exchanges)
}

// LastAnswer returns the most recent answer, or nil.
func (v *View) LastAnswer() *domain.Answer {
	for i := len(v.exchanges) - 1; i >= 0; i-- {
		if v.exchanges[i].answer != nil {
			return v.exchanges[i].answer
		}
	}
	return nil
}

// ScrollOffset returns the index of the first visible transcript line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Question returns the text in the input.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the text in the input.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// StatusState returns the status bar state.
func (v *View) StatusState() status.State {
	return v.statusbar.State()
}

// StatusMessage returns the status bar message.
func (v *View) StatusMessage() string {
	return v.statusbar.Message()
}
