package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestServer_handleIngestText(t *testing.T) {
	ctx := context.Background()

	ingest := &mockIngestService{result: &domain.IngestResult{
		SessionID: "s-1",
		Uploaded:  []domain.UploadedFile{{Filename: "notes.txt", Chars: 11}},
		RAGReady:  true,
	}}
	server := newTestServer(t, &Ports{Ingest: ingest})

	_, output, err := server.handleIngestText(ctx, nil, IngestTextInput{
		SessionID: "s-1",
		Filename:  "notes.txt",
		Text:      "hello world",
	})

	require.NoError(t, err)
	assert.Equal(t, "s-1", output.SessionID)
	assert.True(t, output.RAGReady)
	assert.Equal(t, []domain.UploadedFile{{Filename: "notes.txt", Chars: 11}}, output.Uploaded)
	assert.Empty(t, output.Failed)
	assert.Equal(t, "s-1", ingest.sessionID)
	assert.Equal(t, []domain.Document{{Filename: "notes.txt", Text: "hello world"}}, ingest.docs)
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestServer_handleIngestFile(t *testing.T) {
	ctx := context.Background()

	t.Run("reads the file and reports the result", func(t *testing.T) {
		path := writeTemp(t, t.TempDir(), "notes.txt", "some notes")

		ingest := &mockIngestService{result: &domain.IngestResult{
			SessionID: "new",
			Uploaded:  []domain.UploadedFile{{Filename: "notes.txt", Chars: 10}},
			Failed: []domain.FileError{{
				Filename: "notes.txt",
				Err:      domain.ErrEmbeddingFailure,
			}},
		}}
		server := newTestServer(t, &Ports{Ingest: ingest})

		_, output, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: path})

		require.NoError(t, err)
		assert.Equal(t, "new", output.SessionID)
		assert.Equal(t, []FailedFile{{Filename: "notes.txt", Error: domain.ErrEmbeddingFailure.Error()}}, output.Failed)
		require.Len(t, ingest.files, 1)
		assert.Equal(t, "notes.txt", ingest.files[0].Filename)
		assert.Equal(t, []byte("some notes"), ingest.files[0].Content)
		assert.Empty(t, ingest.sessionID)
	})

	t.Run("missing path", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unreadable file", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: "/no/such/file.pdf"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "/no/such/file.pdf")
	})

	t.Run("unsupported extension is rejected before the file is touched", func(t *testing.T) {
		ingest := &mockIngestService{}
		server := newTestServer(t, &Ports{Ingest: ingest})

		for _, path := range []string{"/dev/zero", "/no/such/notes.docx", writeTemp(t, t.TempDir(), "notes.docx", "binary")} {
			_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: path})
			assert.ErrorIs(t, err, domain.ErrUnsupportedFormat, path)
		}
		assert.Empty(t, ingest.files)
	})

	t.Run("oversized file is rejected", func(t *testing.T) {
		ingest := &mockIngestService{}
		server := newTestServer(t, &Ports{Ingest: ingest}, WithMaxFileBytes(4))

		path := writeTemp(t, t.TempDir(), "big.txt", "more than four bytes")
		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: path})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "limit is 4")
		assert.Empty(t, ingest.files)
	})

	t.Run("directory is rejected", func(t *testing.T) {
		ingest := &mockIngestService{}
		server := newTestServer(t, &Ports{Ingest: ingest})

		dir := filepath.Join(t.TempDir(), "folder.txt")
		require.NoError(t, os.Mkdir(dir, 0700))
		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: dir})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, ingest.files)
	})

	t.Run("file root confines paths", func(t *testing.T) {
		root := t.TempDir()
		outside := writeTemp(t, t.TempDir(), "secret.txt", "secret")
		inside := writeTemp(t, root, "notes.txt", "notes")
		link := filepath.Join(root, "link.txt")
		require.NoError(t, os.Symlink(outside, link))

		ingest := &mockIngestService{result: &domain.IngestResult{SessionID: "s"}}
		server := newTestServer(t, &Ports{Ingest: ingest}, WithFileRoot(root))

		for _, path := range []string{outside, link, filepath.Join(root, "..", filepath.Base(filepath.Dir(outside)), "secret.txt")} {
			_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: path})
			assert.ErrorIs(t, err, domain.ErrInvalidInput, path)
		}
		assert.Empty(t, ingest.files)

		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: inside})
		require.NoError(t, err)
		require.Len(t, ingest.files, 1)
		assert.Equal(t, []byte("notes"), ingest.files[0].Content)
	})
}

func toolNames(t *testing.T, server *Server) []string {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	result, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestServer_Tools(t *testing.T) {
	t.Run("all tools by default", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		assert.ElementsMatch(t, []string{"ingest_text", "ingest_file", "ask"}, toolNames(t, server))
	})

	t.Run("file ingestion can be left out", func(t *testing.T) {
		server := newTestServer(t, &Ports{}, WithoutFileIngest())
		assert.ElementsMatch(t, []string{"ingest_text", "ask"}, toolNames(t, server))
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the answer", func(t *testing.T) {
		answer := &mockAnswerService{answer: &domain.Answer{
			Text:     "Paris",
			Spans:    []domain.EvidenceSpan{{Start: 10, End: 15, Score: 0.9}},
			Entities: []domain.Entity{{EntityGroup: "LOC", Word: "Paris", Score: 0.99, End: 5}},
			Sources:  []string{"a.txt"},
		}}
		server := newTestServer(t, &Ports{Answer: answer})

		useRAG := false
		_, output, err := server.handleAsk(ctx, nil, AskInput{
			SessionID: "s-1",
			Question:  "Where?",
			UseRAG:    &useRAG,
			TopK:      3,
		})

		require.NoError(t, err)
		assert.Equal(t, "Paris", output.Answer)
		assert.Equal(t, []string{"a.txt"}, output.Sources)
		assert.Len(t, output.Spans, 1)
		assert.Len(t, output.Entities, 1)

		assert.Equal(t, "s-1", answer.req.SessionID)
		assert.Equal(t, "Where?", answer.req.Question)
		require.NotNil(t, answer.req.UseRAG)
		assert.False(t, *answer.req.UseRAG)
		assert.Equal(t, 3, answer.req.TopK)
	})

	t.Run("propagates errors", func(t *testing.T) {
		answer := &mockAnswerService{err: errors.New("session \"x\": session not found or empty")}
		server := newTestServer(t, &Ports{Answer: answer})

		_, _, err := server.handleAsk(ctx, nil, AskInput{SessionID: "x", Question: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}
