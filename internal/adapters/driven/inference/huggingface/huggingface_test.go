package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func serve(t *testing.T, handler http.HandlerFunc) Config {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return Config{BaseURL: server.URL + "/models", HubURL: server.URL + "/api/models", Token: "hf_test"}
}

func TestNewClient_RequiresModel(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestQAExtractor_Extract(t *testing.T) {
	cfg := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/"+DefaultQAModel, r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))

		var req qaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Who wrote it?", req.Inputs.Question)
		assert.Equal(t, "It was written by Ada.", req.Inputs.Context)
		assert.True(t, req.Options.WaitForModel)

		_, _ = w.Write([]byte(`{"answer":"Ada","score":0.93,"start":18,"end":21}`))
	})

	qa, err := NewQAExtractor(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultQAModel, qa.ModelName())

	got, err := qa.Extract(context.Background(), "Who wrote it?", "It was written by Ada.")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Answer)
	assert.Equal(t, []domain.EvidenceSpan{{Start: 18, End: 21, Score: 0.93}}, got.Spans)
}

func TestQAExtractor_ListResponse(t *testing.T) {
	cfg := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"answer":"first","score":0.8,"start":0,"end":5},{"answer":"second","score":0.1,"start":6,"end":12}]`))
	})

	qa, err := NewQAExtractor(cfg)
	require.NoError(t, err)

	got, err := qa.Extract(context.Background(), "q", "first second")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Answer)
	require.Len(t, got.Spans, 1)
}

func TestQAExtractor_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		rateLimit  bool
		wantSubstr string
	}{
		{name: "loading", status: http.StatusServiceUnavailable,
			body: `{"error":"Model is currently loading","estimated_time":20}`, wantSubstr: "ready in ~20s"},
		{name: "throttled", status: http.StatusTooManyRequests, body: `{"error":"Rate limit reached"}`, rateLimit: true},
		{name: "plain text", status: http.StatusBadGateway, body: "bad gateway", wantSubstr: "bad gateway"},
		{name: "empty list", status: http.StatusOK, body: `[]`, wantSubstr: "empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := serve(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			qa, err := NewQAExtractor(cfg)
			require.NoError(t, err)

			_, err = qa.Extract(context.Background(), "q", "c")
			require.Error(t, err)
			if tt.rateLimit {
				assert.ErrorIs(t, err, domain.ErrRateLimited)
			}
			if tt.wantSubstr != "" {
				assert.Contains(t, err.Error(), tt.wantSubstr)
			}
		})
	}
}

func TestEntityExtractor_ExtractEntities(t *testing.T) {
	cfg := serve(t, func(w http.ResponseWriter, r *http.Request) {
		var req nerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "simple", req.Parameters.AggregationStrategy)
		assert.Equal(t, "Ada Lovelace in London", req.Inputs)

		_, _ = w.Write([]byte(`[
			{"entity_group":"PER","word":"Ada Lovelace","score":0.99,"start":0,"end":12},
			{"entity":"B-LOC","word":"London","score":0.97,"start":16,"end":22}
		]`))
	})

	ner, err := NewEntityExtractor(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultNERModel, ner.ModelName())

	got, err := ner.ExtractEntities(context.Background(), "Ada Lovelace in London")
	require.NoError(t, err)
	assert.Equal(t, []domain.Entity{
		{EntityGroup: "PER", Word: "Ada Lovelace", Score: 0.99, Start: 0, End: 12},
		{EntityGroup: "LOC", Word: "London", Score: 0.97, Start: 16, End: 22},
	}, got)
}

func TestEntityExtractor_BlankText(t *testing.T) {
	ner, err := NewEntityExtractor(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	got, err := ner.ExtractEntities(context.Background(), "  ")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPing(t *testing.T) {
	cfg := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/models/"+DefaultQAModel {
			_, _ = w.Write([]byte(`{"id":"` + DefaultQAModel + `"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Repository not found"}`))
	})

	qa, err := NewQAExtractor(cfg)
	require.NoError(t, err)
	assert.NoError(t, qa.Ping(context.Background()))

	cfg.Model = "missing/model"
	ner, err := NewEntityExtractor(cfg)
	require.NoError(t, err)
	err = ner.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Repository not found")
}
