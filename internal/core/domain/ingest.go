package domain

// UploadedFile reports one successfully ingested file.
type UploadedFile struct {
	Filename string `json:"filename"`
	Chars    int    `json:"chars"`
	Chunks   int    `json:"chunks,omitempty"`
}

// FileError reports one file that could not be ingested.
type FileError struct {
	Filename string `json:"filename"`
	Err      error  `json:"-"`
}

// Error implements the error interface.
func (e FileError) Error() string {
	if e.Err == nil {
		return e.Filename
	}
	return e.Filename + ": " + e.Err.Error()
}

// Unwrap returns the underlying error so errors.Is sees sentinels.
func (e FileError) Unwrap() error {
	return e.Err
}

// Message returns the error text without the filename.
func (e FileError) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// IngestResult is the outcome of an upload.
type IngestResult struct {
	SessionID string         `json:"session_id"`
	Uploaded  []UploadedFile `json:"uploaded"`
	Failed    []FileError    `json:"-"`
	RAGReady  bool           `json:"rag_ready"`
}

// HasFailures reports whether any file failed.
func (r *IngestResult) HasFailures() bool {
	return r != nil && len(r.Failed) > 0
}
