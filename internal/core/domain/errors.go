package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not available in this build.
	ErrNotImplemented = errors.New("not implemented")

	// ErrRateLimited indicates a provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval indexing is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrAnswerUnavailable indicates no answer extractor is configured.
	ErrAnswerUnavailable = errors.New("answer extractor unavailable")

	// Session Errors.

	// ErrSessionNotFound indicates the session does not exist or holds no documents.
	ErrSessionNotFound = errors.New("session not found or empty")

	// Index Errors.

	// ErrDimensionMismatch indicates a vector's dimension differs from the
	// dimension the index was established with.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Extraction Errors.

	// ErrUnsupportedFormat indicates the file extension is not a recognised
	// document or image type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtractionFailure indicates text could not be extracted from a file.
	ErrExtractionFailure = errors.New("text extraction failed")

	// Capability Errors.

	// ErrEmbeddingFailure indicates the embedding capability returned an error.
	ErrEmbeddingFailure = errors.New("embedding failed")

	// ErrAnswerExtractionFailure indicates the answer extractor returned an error.
	ErrAnswerExtractionFailure = errors.New("answer extraction failed")

	// ErrEntityExtractionFailure indicates the entity extractor returned an error.
	ErrEntityExtractionFailure = errors.New("entity extraction failed")
)
