package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func parisAnswer() *domain.Answer {
	return &domain.Answer{
		Text:     "Paris",
		Spans:    []domain.EvidenceSpan{{Start: 25, End: 30, Score: 0.93}},
		Sources:  []string{"geo.txt"},
		Entities: []domain.Entity{{EntityGroup: "LOC", Word: "Paris", Score: 0.99, Start: 0, End: 5}},
		Context:  "The capital of France is Paris.",
		UsedRAG:  true,
	}
}

func TestAskCmd_RequiresFile(t *testing.T) {
	setServices(t, &mockIngestService{}, &mockAnswerService{}, &mockSessionService{})

	_, _, err := execute(t, "ask", "What?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one --file is required")
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	setServices(t, &mockIngestService{}, &mockAnswerService{}, &mockSessionService{})

	_, _, err := execute(t, "ask", "-f", "a.txt")
	assert.Error(t, err)
}

func TestAskCmd_PrintsAnswer(t *testing.T) {
	answer := &mockAnswerService{answer: parisAnswer()}
	setServices(t, &mockIngestService{}, answer, &mockSessionService{})

	out, _, err := execute(t, "ask", "-f", writeFile(t, "geo.txt", "The capital of France is Paris."), "  What is the capital?  ")
	require.NoError(t, err)

	assert.Contains(t, out, "Answer: Paris")
	assert.Contains(t, out, "Evidence: The capital of France is [Paris].")
	assert.Contains(t, out, "Sources: geo.txt")
	assert.Contains(t, out, "Entities: Paris (LOC, 0.99)")

	require.Len(t, answer.requests, 1)
	req := answer.requests[0]
	assert.Equal(t, "s1", req.SessionID)
	assert.Equal(t, "What is the capital?", req.Question)
	assert.Nil(t, req.UseRAG)
	assert.Zero(t, req.TopK)
}

func TestAskCmd_Flags(t *testing.T) {
	answer := &mockAnswerService{answer: &domain.Answer{}}
	setServices(t, &mockIngestService{}, answer, &mockSessionService{})

	path := writeFile(t, "a.txt", "text")
	out, _, err := execute(t, "ask", "--file", path, "--file", path, "--rag=false", "--top-k", "3", "q")
	require.NoError(t, err)
	assert.Contains(t, out, "No answer found in the documents.")

	require.Len(t, answer.requests, 1)
	req := answer.requests[0]
	require.NotNil(t, req.UseRAG)
	assert.False(t, *req.UseRAG)
	assert.Equal(t, 3, req.TopK)
}

func TestAskCmd_FlagsDoNotLeak(t *testing.T) {
	answer := &mockAnswerService{answer: &domain.Answer{}}
	ingest := &mockIngestService{}
	setServices(t, ingest, answer, &mockSessionService{})

	_, _, err := execute(t, "ask", "-f", writeFile(t, "a.txt", "a"), "--rag=false", "q1")
	require.NoError(t, err)
	resetFlags(rootCmd)
	_, _, err = execute(t, "ask", "-f", writeFile(t, "b.txt", "b"), "q2")
	require.NoError(t, err)

	require.Len(t, answer.requests, 2)
	assert.Nil(t, answer.requests[1].UseRAG)
	require.Len(t, ingest.uploads, 2)
	require.Len(t, ingest.uploads[1], 1)
	assert.Equal(t, "b.txt", ingest.uploads[1][0].Filename)
}

func TestAskCmd_JSON(t *testing.T) {
	setServices(t, &mockIngestService{}, &mockAnswerService{answer: parisAnswer()}, &mockSessionService{})

	out, _, err := execute(t, "ask", "--json", "-f", writeFile(t, "geo.txt", "x"), "q")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Paris", got["answer"])
	assert.NotContains(t, got, "context")
	assert.Len(t, got["spans"], 1)
}

func TestAskCmd_SkipsFailedFiles(t *testing.T) {
	ingest := &mockIngestService{result: &domain.IngestResult{
		SessionID: "s9",
		Uploaded:  []domain.UploadedFile{{Filename: "a.txt", Chars: 4}},
		Failed:    []domain.FileError{{Filename: "b.bin", Err: domain.ErrUnsupportedFormat}},
	}}
	answer := &mockAnswerService{answer: &domain.Answer{Text: "x"}}
	setServices(t, ingest, answer, &mockSessionService{})

	_, stderr, err := execute(t, "ask", "-f", writeFile(t, "a.txt", "text"), "-f", writeFile(t, "b.bin", "?"), "q")
	require.NoError(t, err)
	assert.Contains(t, stderr, "skipped b.bin: unsupported format")
	require.Len(t, answer.requests, 1)
	assert.Equal(t, "s9", answer.requests[0].SessionID)
}

func TestAskCmd_NothingIngested(t *testing.T) {
	ingest := &mockIngestService{result: &domain.IngestResult{SessionID: "s"}}
	answer := &mockAnswerService{}
	setServices(t, ingest, answer, &mockSessionService{})

	_, _, err := execute(t, "ask", "-f", writeFile(t, "a.txt", ""), "q")
	assert.True(t, errors.Is(err, errNothingIngested))
	assert.Empty(t, answer.requests)
}

func TestAskCmd_AnswerError(t *testing.T) {
	answer := &mockAnswerService{err: domain.ErrAnswerUnavailable}
	setServices(t, &mockIngestService{}, answer, &mockSessionService{})

	_, _, err := execute(t, "ask", "-f", writeFile(t, "a.txt", "text"), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAnswerUnavailable))
	assert.Contains(t, err.Error(), "answering")
}
