package domain

// Metadata keys attached to every chunk.
const (
	// MetaSource holds the filename the chunk was cut from.
	MetaSource = "source"

	// MetaPosition holds the chunk's ordinal within its document.
	MetaPosition = "position"

	// UnknownSource is reported when a chunk carries no source metadata.
	UnknownSource = "unknown"
)

// Document is one uploaded file's extracted text.
// Documents are immutable once created and owned by their Session.
type Document struct {
	// Filename is the name the file was uploaded with.
	Filename string `json:"filename"`

	// Text is the full extracted text before chunking.
	Text string `json:"text"`
}

// Chars returns the length of the extracted text in characters.
func (d Document) Chars() int {
	return len([]rune(d.Text))
}

// Chunk is an overlapping word window of a document's text.
// A chunk at position i of an index's chunk list corresponds to vector row i.
type Chunk struct {
	// Text is the chunk content, words joined by single spaces.
	Text string `json:"text"`

	// Metadata always carries MetaSource.
	Metadata map[string]string `json:"metadata"`
}

// Source returns the originating filename or UnknownSource.
func (c Chunk) Source() string {
	if c.Metadata == nil {
		return UnknownSource
	}
	if src, ok := c.Metadata[MetaSource]; ok && src != "" {
		return src
	}
	return UnknownSource
}

// RetrievedChunk is a read-only search result view.
type RetrievedChunk struct {
	Chunk

	// Score is the inner product between query and chunk vectors.
	Score float64 `json:"score"`
}
