// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded file's extracted text, owned by a session
//   - Chunk: An overlapping word window of a document, the unit of indexing
//   - Session: A read-only snapshot of one session's documents and index
//   - Answer: The assembled response to a question
//   - RawDocument: Opaque uploaded bytes before text extraction
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
