package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService extracts text from uploads and hands it to the session store.
type IngestService struct {
	sessions    *SessionStore
	normalisers driven.NormaliserRegistry
}

// NewIngestService creates a new ingest service.
func NewIngestService(sessions *SessionStore, normalisers driven.NormaliserRegistry) *IngestService {
	return &IngestService{
		sessions:    sessions,
		normalisers: normalisers,
	}
}

// Upload extracts each file and ingests the ones that succeed in one call.
// Extraction failures are reported per file. When every file fails a
// session is still allocated and its id returned.
func (s *IngestService) Upload(ctx context.Context, sessionID string, files []domain.RawDocument) (*domain.IngestResult, error) {
	logger.Section("Upload")

	docs := make([]domain.Document, 0, len(files))
	var failed []domain.FileError

	for i := range files {
		raw := &files[i]
		text, err := s.normalisers.Extract(ctx, raw)
		if err != nil {
			if !errors.Is(err, domain.ErrUnsupportedFormat) && !errors.Is(err, domain.ErrExtractionFailure) {
				err = fmt.Errorf("%w: %w", domain.ErrExtractionFailure, err)
			}
			logger.Warn("skipping %s: %v", raw.Filename, err)
			failed = append(failed, domain.FileError{Filename: raw.Filename, Err: err})
			continue
		}
		logger.Debug("extracted %d bytes of text from %s", len(text), raw.Filename)
		docs = append(docs, domain.Document{Filename: raw.Filename, Text: text})
	}

	result, err := s.sessions.Ingest(ctx, sessionID, docs)
	if err != nil {
		return result, err
	}
	result.Failed = append(failed, result.Failed...)
	return result, nil
}

// IngestText ingests already-extracted documents.
func (s *IngestService) IngestText(ctx context.Context, sessionID string, docs []domain.Document) (*domain.IngestResult, error) {
	for _, d := range docs {
		if d.Filename == "" {
			return nil, fmt.Errorf("document without filename: %w", domain.ErrInvalidInput)
		}
	}
	return s.sessions.Ingest(ctx, sessionID, docs)
}

// SupportedExtensions returns the file extensions Upload accepts.
func (s *IngestService) SupportedExtensions() []string {
	return s.normalisers.SupportedExtensions()
}
