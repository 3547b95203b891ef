package domain

import "time"

// Session is a read-only snapshot of one session's state.
// The live record is owned by the session store.
type Session struct {
	// ID is the opaque session identifier.
	ID string `json:"session_id"`

	// Documents are in upload order.
	Documents []Document `json:"documents"`

	// IndexSize is the number of chunks in the retrieval index.
	// Zero when retrieval indexing is disabled or nothing was indexed.
	IndexSize int `json:"index_size"`

	// CreatedAt is when the session was first allocated.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the last ingestion finished.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmpty reports whether the session holds no documents.
func (s *Session) IsEmpty() bool {
	return s == nil || len(s.Documents) == 0
}

// Filenames returns document filenames in upload order.
func (s *Session) Filenames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Documents))
	for i, d := range s.Documents {
		names[i] = d.Filename
	}
	return names
}
