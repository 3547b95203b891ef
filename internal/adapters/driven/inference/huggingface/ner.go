package huggingface

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure EntityExtractor implements the interface.
var _ driven.EntityExtractor = (*EntityExtractor)(nil)

// DefaultNERModel is the token-classification checkpoint.
const DefaultNERModel = "dslim/bert-base-NER"

// EntityExtractor groups token-classification output into entities.
type EntityExtractor struct {
	client *Client
}

type nerParameters struct {
	AggregationStrategy string `json:"aggregation_strategy"`
}

type nerRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters nerParameters  `json:"parameters"`
	Options    requestOptions `json:"options"`
}

// nerResult is one grouped entity. Ungrouped models report "entity"
// instead of "entity_group".
type nerResult struct {
	EntityGroup string  `json:"entity_group"`
	Entity      string  `json:"entity"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
}

// NewEntityExtractor creates a token-classification adapter.
func NewEntityExtractor(cfg Config) (*EntityExtractor, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultNERModel
	}
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &EntityExtractor{client: client}, nil
}

// ExtractEntities returns the entities found in text.
func (e *EntityExtractor) ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return []domain.Entity{}, nil
	}

	req := nerRequest{
		Inputs:     text,
		Parameters: nerParameters{AggregationStrategy: "simple"},
		Options:    requestOptions{WaitForModel: true},
	}

	var resp []nerResult
	if err := e.client.Infer(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("token classification: %w", err)
	}

	entities := make([]domain.Entity, 0, len(resp))
	for _, r := range resp {
		group := r.EntityGroup
		if group == "" {
			// B-PER / I-PER style labels.
			group = r.Entity
			if i := strings.IndexByte(group, '-'); i >= 0 {
				group = group[i+1:]
			}
		}
		entities = append(entities, domain.Entity{
			EntityGroup: group,
			Word:        r.Word,
			Score:       r.Score,
			Start:       r.Start,
			End:         r.End,
		})
	}
	return entities, nil
}

// ModelName returns the name of the model being used.
func (e *EntityExtractor) ModelName() string {
	return e.client.Model()
}

// Ping checks the model exists.
func (e *EntityExtractor) Ping(ctx context.Context) error {
	return e.client.Ping(ctx)
}

// Close releases resources.
func (e *EntityExtractor) Close() error {
	return nil
}
