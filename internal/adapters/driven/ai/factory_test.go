package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmanswer "github.com/custodia-labs/docqa/internal/adapters/driven/answer/llm"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/docqa/internal/adapters/driven/inference/huggingface"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func provider(p domain.AIProvider, key string) domain.ProviderSettings {
	return domain.ProviderSettings{Provider: p, APIKey: key, Model: "m", BaseURL: "http://127.0.0.1:1"}
}

// fakeOllama answers the endpoints the Ollama adapters use.
func fakeOllama(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/embed":
			_, _ = w.Write([]byte(`{"embeddings":[[1,0]]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestInitResult_Close(t *testing.T) {
	result := &InitResult{}
	// nil services must not panic
	result.Close()
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		errContains string
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{name: "openai without key", settings: &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderOpenAI, "")}, wantNil: true},
		{name: "huggingface", settings: &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderHuggingFace, "")}},
		{name: "ollama", settings: &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderOllama, "")}},
		{name: "openai", settings: &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderOpenAI, "k")}},
		{
			name:        "anthropic",
			settings:    &domain.EmbeddingSettings{ProviderSettings: provider(domain.AIProviderAnthropic, "k")},
			wantNil:     true,
			errContains: "anthropic does not support embeddings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, "m", svc.ModelName())
			svc.Close()
		})
	}
}

func TestCreateEmbeddingService_KnownDimensions(t *testing.T) {
	settings := &domain.EmbeddingSettings{ProviderSettings: domain.ProviderSettings{
		Provider: domain.AIProviderOllama,
		Model:    "mxbai-embed-large",
	}}

	svc, err := CreateEmbeddingService(settings)
	require.NoError(t, err)
	assert.Equal(t, 1024, svc.Dimensions())
}

func TestCreateAnswerExtractor(t *testing.T) {
	hf, err := CreateAnswerExtractor(&domain.AnswerSettings{ProviderSettings: provider(domain.AIProviderHuggingFace, "")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &huggingface.QAExtractor{}, hf)

	for _, p := range []domain.AIProvider{domain.AIProviderOllama, domain.AIProviderOpenAI, domain.AIProviderAnthropic} {
		ext, err := CreateAnswerExtractor(&domain.AnswerSettings{ProviderSettings: provider(p, "k")}, nil)
		require.NoError(t, err, p)
		assert.IsType(t, &llmanswer.Extractor{}, ext, p)
	}

	_, err = CreateAnswerExtractor(nil, nil)
	assert.Error(t, err)
	_, err = CreateAnswerExtractor(&domain.AnswerSettings{ProviderSettings: provider(domain.AIProviderAnthropic, "")}, nil)
	assert.Error(t, err)
}

func TestCreateEntityExtractor(t *testing.T) {
	ext, err := CreateEntityExtractor(nil)
	require.NoError(t, err)
	assert.Nil(t, ext)

	ext, err = CreateEntityExtractor(&domain.NERSettings{ProviderSettings: provider(domain.AIProviderHuggingFace, "")})
	require.NoError(t, err)
	assert.NotNil(t, ext)

	_, err = CreateEntityExtractor(&domain.NERSettings{ProviderSettings: provider(domain.AIProviderOllama, "")})
	assert.Error(t, err)
}

func TestCreateLLMService(t *testing.T) {
	for _, p := range []domain.AIProvider{domain.AIProviderOllama, domain.AIProviderOpenAI, domain.AIProviderAnthropic} {
		svc, err := CreateLLMService(provider(p, "k"))
		require.NoError(t, err, p)
		assert.Equal(t, "m", svc.ModelName())
	}

	_, err := CreateLLMService(provider(domain.AIProviderHuggingFace, ""))
	assert.Error(t, err)
}

func TestCreateAndValidateEmbeddingService_Unreachable(t *testing.T) {
	_, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
		ProviderSettings: provider(domain.AIProviderOllama, ""),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	assert.Contains(t, err.Error(), "docqa settings")
}

func TestInit_AllCapabilities(t *testing.T) {
	url := fakeOllama(t)
	settings := domain.DefaultAppSettings()
	settings.Answer.ProviderSettings = domain.ProviderSettings{Provider: domain.AIProviderOllama, BaseURL: url, Model: "llama"}
	settings.Embedding.ProviderSettings = domain.ProviderSettings{
		Provider: domain.AIProviderOllama, BaseURL: url, Model: "all-minilm", RateLimit: 100,
	}
	settings.Embedding.CacheSize = 8

	result := Init(&settings, Options{})
	defer result.Close()

	assert.Empty(t, result.Warnings)
	assert.False(t, result.FellBack)
	require.NotNil(t, result.Answer)
	require.NotNil(t, result.Embedding)
	assert.IsType(t, &cached.EmbeddingService{}, result.Embedding)
	assert.Equal(t, 384, result.Embedding.Dimensions())
	assert.Nil(t, result.Entities)

	vec, err := result.Embedding.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
}

func TestInit_Degrades(t *testing.T) {
	url := fakeOllama(t)
	settings := domain.DefaultAppSettings()
	settings.Answer.ProviderSettings = domain.ProviderSettings{Provider: domain.AIProviderOllama, BaseURL: url}
	settings.Embedding.ProviderSettings = provider(domain.AIProviderOllama, "")
	settings.Embedding.CacheSize = 0
	settings.NER.Enabled = true
	settings.NER.ProviderSettings = provider(domain.AIProviderOpenAI, "k")

	result := Init(&settings, Options{})
	defer result.Close()

	assert.NotNil(t, result.Answer)
	assert.Nil(t, result.Embedding)
	assert.True(t, result.FellBack)
	assert.Nil(t, result.Entities)
	assert.Len(t, result.Warnings, 2)
}

func TestInit_RAGDisabledSkipsEmbeddings(t *testing.T) {
	url := fakeOllama(t)
	settings := domain.DefaultAppSettings()
	settings.RAG.Enabled = false
	settings.Answer.ProviderSettings = domain.ProviderSettings{Provider: domain.AIProviderOllama, BaseURL: url}
	settings.Embedding.ProviderSettings = provider(domain.AIProviderOllama, "")

	result := Init(&settings, Options{})
	defer result.Close()

	assert.Nil(t, result.Embedding)
	assert.False(t, result.FellBack)
	assert.Empty(t, result.Warnings)
}

func TestInit_AnswerUnavailable(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.RAG.Enabled = false
	settings.Answer.ProviderSettings = provider(domain.AIProviderOllama, "")

	result := Init(&settings, Options{})
	defer result.Close()

	assert.Nil(t, result.Answer)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "answers unavailable")
}
