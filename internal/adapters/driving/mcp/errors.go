// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants upload documents into sessions and ask questions about them.
package mcp

import "errors"

var (
	// ErrMissingIngestService is returned when the ingest service is not provided.
	ErrMissingIngestService = errors.New("mcp: ingest service is required")

	// ErrMissingAnswerService is returned when the answer service is not provided.
	ErrMissingAnswerService = errors.New("mcp: answer service is required")
)
