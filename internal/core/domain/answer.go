package domain

import "strings"

// DefaultTopK is the number of chunks retrieved when a request does not say.
const DefaultTopK = 5

// AskRequest is a question against one session.
type AskRequest struct {
	// SessionID selects the session.
	SessionID string `json:"session_id"`

	// Question is the natural-language question.
	Question string `json:"question"`

	// UseRAG overrides the process default for retrieval when set.
	UseRAG *bool `json:"use_rag,omitempty"`

	// TopK is the number of chunks to retrieve (default 5).
	TopK int `json:"top_k,omitempty"`
}

// EvidenceSpan locates the answer inside the context sent to the extractor.
type EvidenceSpan struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
}

// Entity is a named entity found in the answer text.
type Entity struct {
	EntityGroup string  `json:"entity_group"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
}

// Extraction is the raw output of an answer extractor.
type Extraction struct {
	// Answer is the extracted answer text.
	Answer string

	// Spans are offsets into the context, at least one when Answer is set.
	Spans []EvidenceSpan
}

// Answer is the assembled response to an AskRequest.
type Answer struct {
	Text     string         `json:"answer"`
	Spans    []EvidenceSpan `json:"spans"`
	Entities []Entity       `json:"entities"`
	Sources  []string       `json:"sources"`

	// Context is the text handed to the extractor. Not serialised.
	Context string `json:"-"`

	// UsedRAG reports whether retrieved chunks formed the context.
	UsedRAG bool `json:"-"`
}

// Excerpt splits Context around the first span, keeping radius runes on
// each side. Offsets are rune positions. Newlines are flattened so the
// excerpt renders inline. ok is false when there is no span or it does not
// fit Context.
func (a *Answer) Excerpt(radius int) (before, match, after string, ok bool) {
	if len(a.Spans) == 0 {
		return "", "", "", false
	}
	span := a.Spans[0]
	runes := []rune(a.Context)
	if span.Start < 0 || span.End <= span.Start || span.End > len(runes) {
		return "", "", "", false
	}

	from := max(span.Start-radius, 0)
	to := min(span.End+radius, len(runes))

	before = flattenLines(string(runes[from:span.Start]))
	match = flattenLines(string(runes[span.Start:span.End]))
	after = flattenLines(string(runes[span.End:to]))
	if from > 0 {
		before = "..." + before
	}
	if to < len(runes) {
		after += "..."
	}
	return before, match, after, true
}

var lineFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ")

func flattenLines(s string) string {
	return lineFlattener.Replace(s)
}
