package mcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IngestTextInput is the input schema for the ingest_text tool.
type IngestTextInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"existing session to append to; a new session is created when empty"`
	Filename  string `json:"filename" jsonschema:"name the text is cited under in answers"`
	Text      string `json:"text" jsonschema:"document text"`
}

// IngestFileInput is the input schema for the ingest_file tool.
type IngestFileInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"existing session to append to; a new session is created when empty"`
	Path      string `json:"path" jsonschema:"local path of a PDF, image, text, markdown or HTML file"`
}

// IngestOutput is the output schema for the ingest tools.
type IngestOutput struct {
	SessionID string                `json:"session_id"`
	Uploaded  []domain.UploadedFile `json:"uploaded"`
	Failed    []FailedFile          `json:"failed,omitempty"`
	RAGReady  bool                  `json:"rag_ready"`
}

// FailedFile reports a file that could not be ingested.
type FailedFile struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	SessionID string `json:"session_id" jsonschema:"session holding the documents"`
	Question  string `json:"question" jsonschema:"natural-language question"`
	UseRAG    *bool  `json:"use_rag,omitempty" jsonschema:"retrieve relevant chunks instead of using the full text (server default when omitted)"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string                `json:"answer"`
	Spans    []domain.EvidenceSpan `json:"spans"`
	Entities []domain.Entity       `json:"entities"`
	Sources  []string              `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_text",
		Description: "Add a text document to a question-answering session",
	}, s.handleIngestText)

	if s.fileIngest {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_file",
			Description: "Extract text from a local file and add it to a question-answering session",
		}, s.handleIngestFile)
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the documents in a session, with evidence spans and sources",
	}, s.handleAsk)
}

// handleIngestText handles the ingest_text tool invocation.
func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	doc := domain.Document{Filename: input.Filename, Text: input.Text}
	result, err := s.ports.Ingest.IngestText(ctx, input.SessionID, []domain.Document{doc})
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, ingestOutput(result), nil
}

// handleIngestFile handles the ingest_file tool invocation.
func (s *Server) handleIngestFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestFileInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Path == "" {
		return nil, IngestOutput{}, fmt.Errorf("path is required: %w", domain.ErrInvalidInput)
	}
	content, err := s.readFile(input.Path)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	raw := domain.RawDocument{Filename: filepath.Base(input.Path), Content: content}
	result, err := s.ports.Ingest.Upload(ctx, input.SessionID, []domain.RawDocument{raw})
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, ingestOutput(result), nil
}

// readFile reads a supported regular file no larger than maxFileBytes,
// inside fileRoot when one is set. Checks run before any content is read.
func (s *Server) readFile(path string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(s.ports.Ingest.SupportedExtensions(), ext) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrUnsupportedFormat)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if s.fileRoot != "" {
		if err := within(s.fileRoot, resolved); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file: %w", path, domain.ErrInvalidInput)
	}
	if info.Size() > s.maxFileBytes {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d: %w",
			path, info.Size(), s.maxFileBytes, domain.ErrInvalidInput)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, s.maxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if int64(len(content)) > s.maxFileBytes {
		return nil, fmt.Errorf("%s grew past %d bytes: %w", path, s.maxFileBytes, domain.ErrInvalidInput)
	}
	return content, nil
}

// within reports an error unless path lies under root. path must already
// have its symlinks resolved.
func within(root, path string) error {
	root, err := filepath.Abs(root)
	if err == nil {
		root, err = filepath.EvalSymlinks(root)
	}
	if err != nil {
		return fmt.Errorf("resolving file root: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("outside %s: %w", root, domain.ErrInvalidInput)
	}
	return nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Answer(ctx, domain.AskRequest{
		SessionID: input.SessionID,
		Question:  input.Question,
		UseRAG:    input.UseRAG,
		TopK:      input.TopK,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:   answer.Text,
		Spans:    answer.Spans,
		Entities: answer.Entities,
		Sources:  answer.Sources,
	}, nil
}

func ingestOutput(result *domain.IngestResult) IngestOutput {
	out := IngestOutput{
		SessionID: result.SessionID,
		Uploaded:  result.Uploaded,
		RAGReady:  result.RAGReady,
	}
	for _, f := range result.Failed {
		out.Failed = append(out.Failed, FailedFile{Filename: f.Filename, Error: f.Message()})
	}
	return out
}
