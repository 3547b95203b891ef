package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestNewConfigValidator(t *testing.T) {
	require.NotNil(t, NewConfigValidator())
}

func TestConfigValidator_NilAndUnconfigured(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateEmbedding(nil))
	assert.NoError(t, validator.ValidateAnswer(nil))

	// nothing to validate without a provider
	assert.NoError(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{
		ProviderSettings: domain.ProviderSettings{Model: "test-model"},
	}))
	assert.NoError(t, validator.ValidateAnswer(&domain.AnswerSettings{
		ProviderSettings: domain.ProviderSettings{Provider: domain.AIProviderOpenAI},
	}))
}

func TestConfigValidator_PingsProvider(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	validator := NewConfigValidator()
	ollama := func(url string) domain.ProviderSettings {
		return domain.ProviderSettings{Provider: domain.AIProviderOllama, BaseURL: url, Model: "m"}
	}

	assert.NoError(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{ProviderSettings: ollama(up.URL)}))
	assert.NoError(t, validator.ValidateAnswer(&domain.AnswerSettings{ProviderSettings: ollama(up.URL)}))
	assert.Error(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{ProviderSettings: ollama(down.URL)}))
	assert.Error(t, validator.ValidateAnswer(&domain.AnswerSettings{ProviderSettings: ollama(down.URL)}))
}
