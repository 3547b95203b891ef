package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure QAExtractor implements the interface.
var _ driven.AnswerExtractor = (*QAExtractor)(nil)

// DefaultQAModel is the extractive question-answering checkpoint.
const DefaultQAModel = "distilbert-base-cased-distilled-squad"

// QAExtractor answers questions with an extractive QA model. The model
// returns one answer with character offsets into the context.
type QAExtractor struct {
	client *Client
}

type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type qaRequest struct {
	Inputs  qaInputs       `json:"inputs"`
	Options requestOptions `json:"options"`
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type qaResult struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

// qaResponse accepts a single result object or a list of them.
type qaResponse []qaResult

// UnmarshalJSON implements json.Unmarshaler.
func (r *qaResponse) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []qaResult
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = list
		return nil
	}
	var one qaResult
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*r = qaResponse{one}
	return nil
}

// NewQAExtractor creates an extractive QA adapter.
func NewQAExtractor(cfg Config) (*QAExtractor, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultQAModel
	}
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &QAExtractor{client: client}, nil
}

// Extract returns the best answer span for question within context.
func (e *QAExtractor) Extract(ctx context.Context, question, context string) (*domain.Extraction, error) {
	req := qaRequest{
		Inputs:  qaInputs{Question: question, Context: context},
		Options: requestOptions{WaitForModel: true},
	}

	var resp qaResponse
	if err := e.client.Infer(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("question answering: %w", err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("question answering: empty response")
	}

	best := resp[0]
	return &domain.Extraction{
		Answer: best.Answer,
		Spans: []domain.EvidenceSpan{
			{Start: best.Start, End: best.End, Score: best.Score},
		},
	}, nil
}

// ModelName returns the name of the model being used.
func (e *QAExtractor) ModelName() string {
	return e.client.Model()
}

// Ping checks the model exists.
func (e *QAExtractor) Ping(ctx context.Context) error {
	return e.client.Ping(ctx)
}

// Close releases resources.
func (e *QAExtractor) Close() error {
	return nil
}
