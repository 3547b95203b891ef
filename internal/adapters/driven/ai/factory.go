// Package ai provides factory functions for creating model capability adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	llmanswer "github.com/custodia-labs/docqa/internal/adapters/driven/answer/llm"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/cached"
	hfembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/huggingface"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/inference/huggingface"
	anthropicllm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// settingsHint is appended to configuration errors.
const settingsHint = "Run 'docqa settings' to fix"

// pinger is implemented by every capability adapter.
type pinger interface {
	Ping(ctx context.Context) error
}

// Options carries optional collaborators for Init.
type Options struct {
	// PromptStore customises LLM answer prompts.
	PromptStore driven.PromptStore

	// EmbeddingCache persists embeddings across runs.
	EmbeddingCache driven.EmbeddingCache
}

// InitResult contains the capabilities built from settings.
type InitResult struct {
	Embedding driven.EmbeddingService
	Answer    driven.AnswerExtractor
	Entities  driven.EntityExtractor
	Warnings  []string // Non-fatal issues that caused fallback.
	FellBack  bool     // True if retrieval was requested but embeddings are unavailable.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedding != nil {
		r.Embedding.Close()
	}
	if r.Answer != nil {
		r.Answer.Close()
	}
	if r.Entities != nil {
		r.Entities.Close()
	}
}

func (r *InitResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	r.Warnings = append(r.Warnings, msg)
}

// Init creates and validates every capability the settings enable.
// Unreachable providers degrade to warnings: answers fall back to full
// context without embeddings and carry no entities without NER. A missing
// answer extractor is reported by the answer service per request.
func Init(settings *domain.AppSettings, opts Options) *InitResult {
	result := &InitResult{}

	answer, err := CreateAndValidateAnswerExtractor(&settings.Answer, opts.PromptStore)
	if err != nil {
		result.warn("answers unavailable: %v", err)
	} else {
		result.Answer = ratelimit.Answer(answer, ratelimit.NewLimiter(settings.Answer.RateLimit))
	}

	if settings.RAG.Enabled {
		embedding, err := CreateAndValidateEmbeddingService(&settings.Embedding)
		switch {
		case err != nil:
			result.warn("retrieval disabled, answering from full document text: %v", err)
			result.FellBack = true
		case embedding == nil:
			result.warn("retrieval disabled: embedding provider %s is not configured", settings.Embedding.Provider)
			result.FellBack = true
		default:
			result.Embedding = wrapEmbedding(embedding, &settings.Embedding, opts.EmbeddingCache)
		}
	}

	if settings.NER.Enabled {
		entities, err := CreateAndValidateEntityExtractor(&settings.NER)
		if err != nil {
			result.warn("entity extraction disabled: %v", err)
		} else if entities != nil {
			result.Entities = ratelimit.Entities(entities, ratelimit.NewLimiter(settings.NER.RateLimit))
		}
	}

	return result
}

// wrapEmbedding layers rate limiting under caching, so cache hits never
// consume provider budget.
func wrapEmbedding(
	svc driven.EmbeddingService,
	settings *domain.EmbeddingSettings,
	store driven.EmbeddingCache,
) driven.EmbeddingService {
	svc = ratelimit.Embedding(svc, ratelimit.NewLimiter(settings.RateLimit))

	if settings.CacheSize <= 0 && store == nil {
		return svc
	}
	var opts []cached.Option
	if store != nil {
		opts = append(opts, cached.WithStore(store))
	}
	wrapped, err := cached.New(svc, settings.CacheSize, opts...)
	if err != nil {
		logger.Warn("embedding cache disabled: %v", err)
		return svc
	}
	return wrapped
}

func validate(svc pinger) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil without error when the provider is not configured.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, nil
	}

	if err := validate(svc); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	return svc, nil
}

// CreateAndValidateAnswerExtractor creates an answer extractor and validates connectivity.
func CreateAndValidateAnswerExtractor(
	settings *domain.AnswerSettings,
	prompts driven.PromptStore,
) (driven.AnswerExtractor, error) {
	ext, err := CreateAnswerExtractor(settings, prompts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrAnswerUnavailable, err, settingsHint)
	}

	if p, ok := ext.(pinger); ok {
		if err := validate(p); err != nil {
			ext.Close()
			return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrAnswerUnavailable, err, settingsHint)
		}
	}
	return ext, nil
}

// CreateAndValidateEntityExtractor creates an entity extractor and validates connectivity.
func CreateAndValidateEntityExtractor(settings *domain.NERSettings) (driven.EntityExtractor, error) {
	ext, err := CreateEntityExtractor(settings)
	if err != nil || ext == nil {
		return nil, err
	}

	if p, ok := ext.(pinger); ok {
		if err := validate(p); err != nil {
			ext.Close()
			return nil, fmt.Errorf("entity extractor unreachable: %w", err)
		}
	}
	return ext, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return validate(svc)
}

// ValidateAnswerConfig validates an answer configuration by creating an extractor and pinging it.
// Unconfigured settings have nothing to validate.
func ValidateAnswerConfig(settings *domain.AnswerSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	ext, err := CreateAnswerExtractor(settings, nil)
	if err != nil {
		return err
	}
	defer ext.Close()
	if p, ok := ext.(pinger); ok {
		return validate(p)
	}
	return nil
}

// CreateEmbeddingService creates the embedding service for the configured provider.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	dimensions := domain.EmbeddingDimensions()[settings.Model]

	switch settings.Provider {
	case domain.AIProviderHuggingFace:
		return hfembed.NewEmbeddingService(hfembed.Config{
			Config:     hfConfig(settings.ProviderSettings),
			Dimensions: dimensions,
		})

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use huggingface, ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateAnswerExtractor creates the answer extractor for the configured provider.
// Hugging Face uses an extractive QA model; the other providers prompt an LLM.
func CreateAnswerExtractor(settings *domain.AnswerSettings, prompts driven.PromptStore) (driven.AnswerExtractor, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("answer provider %q is not configured", providerOf(settings))
	}

	if settings.Provider == domain.AIProviderHuggingFace {
		return huggingface.NewQAExtractor(hfConfig(settings.ProviderSettings))
	}

	svc, err := CreateLLMService(settings.ProviderSettings)
	if err != nil {
		return nil, err
	}
	ext := llmanswer.New(svc)
	if prompts != nil {
		ext.SetPromptStore(prompts)
	}
	return ext, nil
}

// CreateEntityExtractor creates the entity extractor for the configured provider.
// Returns nil if the provider is not configured.
func CreateEntityExtractor(settings *domain.NERSettings) (driven.EntityExtractor, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	if settings.Provider != domain.AIProviderHuggingFace {
		return nil, fmt.Errorf("entity extraction requires the huggingface provider, got %s", settings.Provider)
	}
	return huggingface.NewEntityExtractor(hfConfig(settings.ProviderSettings))
}

// CreateLLMService creates the generative model client for a provider.
func CreateLLMService(settings domain.ProviderSettings) (driven.LLMService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func hfConfig(settings domain.ProviderSettings) huggingface.Config {
	return huggingface.Config{
		Token:   settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	}
}

func providerOf(settings *domain.AnswerSettings) domain.AIProvider {
	if settings == nil {
		return ""
	}
	return settings.Provider
}
