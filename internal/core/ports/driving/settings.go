package driving

import "github.com/custodia-labs/docqa/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings with environment overrides applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetRAGEnabled toggles retrieval for new uploads and questions.
	SetRAGEnabled(enabled bool) error

	// SetNEREnabled toggles entity extraction.
	SetNEREnabled(enabled bool) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetAnswerProvider configures the answer provider.
	SetAnswerProvider(provider domain.AIProvider, model, apiKey string) error

	// SetIndexBackend selects the vector index implementation.
	SetIndexBackend(backend domain.IndexBackend) error

	// Validate checks if current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateAnswerConfig validates the answer configuration by pinging the provider.
	ValidateAnswerConfig() error
}
