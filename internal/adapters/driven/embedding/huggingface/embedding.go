// Package huggingface provides an embedding service adapter using the
// Hugging Face Inference API feature-extraction task.
package huggingface

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/docqa/internal/adapters/driven/inference/huggingface"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultDimensions = 384
)

// Config holds configuration for the Hugging Face embedding service.
type Config struct {
	huggingface.Config

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int
}

// EmbeddingService generates sentence embeddings via feature extraction.
type EmbeddingService struct {
	client     *huggingface.Client
	dimensions int
}

type featureRequest struct {
	Inputs  []string       `json:"inputs"`
	Options featureOptions `json:"options"`
}

type featureOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// NewEmbeddingService creates a new Hugging Face embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	client, err := huggingface.NewClient(cfg.Config)
	if err != nil {
		return nil, err
	}
	return &EmbeddingService{client: client, dimensions: cfg.Dimensions}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var raw json.RawMessage
	req := featureRequest{Inputs: texts, Options: featureOptions{WaitForModel: true}}
	if err := s.client.Infer(ctx, req, &raw); err != nil {
		return nil, fmt.Errorf("feature extraction: %w", err)
	}

	embeddings, err := decodeFeatures(raw)
	if err != nil {
		return nil, fmt.Errorf("feature extraction: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("feature extraction: got %d embeddings for %d inputs",
			len(embeddings), len(texts))
	}
	return embeddings, nil
}

// decodeFeatures accepts pooled sentence vectors or per-token vectors,
// mean-pooling the latter.
func decodeFeatures(raw json.RawMessage) ([][]float32, error) {
	var pooled [][]float32
	if err := json.Unmarshal(raw, &pooled); err == nil {
		return pooled, nil
	}

	var tokens [][][]float32
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	out := make([][]float32, len(tokens))
	for i, seq := range tokens {
		if len(seq) == 0 {
			return nil, fmt.Errorf("input %d: no token vectors", i)
		}
		mean := make([]float32, len(seq[0]))
		for _, tok := range seq {
			for j := range mean {
				if j < len(tok) {
					mean[j] += tok[j]
				}
			}
		}
		for j := range mean {
			mean[j] /= float32(len(seq))
		}
		out[i] = mean
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.client.Model()
}

// Ping checks the model exists.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
