package domain

import (
	"path/filepath"
	"strings"
)

// RawDocument is an uploaded file before text extraction.
type RawDocument struct {
	// Filename is the client supplied name; its extension selects the extractor.
	Filename string

	// MIMEType is the content type reported by the client, if any.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Extension returns the lower-cased filename extension including the dot.
func (r RawDocument) Extension() string {
	return strings.ToLower(filepath.Ext(r.Filename))
}

// ChangeType represents the type of file change seen by a watcher.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed file.
	ChangeDeleted
)

// String returns the string representation.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RawDocumentChange represents a change event from a watcher.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the absolute path of the affected file.
	Path string

	// Document is the affected file. Content is empty for deletions.
	Document RawDocument
}
