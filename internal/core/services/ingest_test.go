package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func raw(name, content string) domain.RawDocument {
	return domain.RawDocument{Filename: name, Content: []byte(content)}
}

func TestIngestService_UnsupportedFileDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(newKeywordEmbedder("alpha"))
	svc := NewIngestService(store, extRegistry{})

	result, err := svc.Upload(ctx, "", []domain.RawDocument{
		raw("notes.docx", "PK..."),
		raw("a.txt", "alpha text"),
	})
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "notes.docx", result.Failed[0].Filename)
	assert.ErrorIs(t, result.Failed[0], domain.ErrUnsupportedFormat)

	assert.Equal(t, []domain.UploadedFile{{Filename: "a.txt", Chars: 10, Chunks: 1}}, result.Uploaded)
	assert.True(t, result.RAGReady)

	sess, err := store.Get(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, sess.Filenames())
}

func TestIngestService_ExtractionFailureIsWrapped(t *testing.T) {
	svc := NewIngestService(newTestStore(nil), extRegistry{})

	result, err := svc.Upload(context.Background(), "", []domain.RawDocument{raw("scan.bad", "")})
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.ErrorIs(t, result.Failed[0], domain.ErrExtractionFailure)
	assert.Contains(t, result.Failed[0].Message(), "tool crashed")
}

func TestIngestService_AllFailedStillAllocatesSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)
	svc := NewIngestService(store, extRegistry{})

	result, err := svc.Upload(ctx, "", []domain.RawDocument{raw("a.docx", ""), raw("b.xlsx", "")})
	require.NoError(t, err)
	assert.Len(t, result.Failed, 2)
	assert.Empty(t, result.Uploaded)
	require.NotEmpty(t, result.SessionID)

	sess, err := store.Get(ctx, result.SessionID)
	require.NoError(t, err)
	assert.True(t, sess.IsEmpty())
}

func TestIngestService_AppendsToExistingSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil)
	svc := NewIngestService(store, extRegistry{})

	first, err := svc.Upload(ctx, "", []domain.RawDocument{raw("a.txt", "one")})
	require.NoError(t, err)
	second, err := svc.Upload(ctx, first.SessionID, []domain.RawDocument{raw("b.txt", "two")})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	sess, err := store.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, sess.Filenames())
}

func TestIngestService_IngestText(t *testing.T) {
	ctx := context.Background()
	svc := NewIngestService(newTestStore(nil), extRegistry{})

	_, err := svc.IngestText(ctx, "", []domain.Document{{Text: "no name"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	result, err := svc.IngestText(ctx, "", []domain.Document{{Filename: "pasted.txt", Text: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Uploaded[0].Chars)
	assert.Equal(t, []string{".txt"}, svc.SupportedExtensions())
}
