package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyRAGEnabled      = "rag.enabled"
	keyRAGChunkSize    = "rag.chunk_size"
	keyRAGChunkOverlap = "rag.chunk_overlap"
	keyRAGTopK         = "rag.top_k"
	keyRAGMaxContext   = "rag.max_context_chars"
	keyRAGBackend      = "rag.backend"

	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedRateLimit  = "embedding.rate_limit"
	keyEmbedCacheSize  = "embedding.cache_size"
	keyEmbedPersistent = "embedding.persistent_cache"

	keyAnswerProvider  = "answer.provider"
	keyAnswerModel     = "answer.model"
	keyAnswerBaseURL   = "answer.base_url"
	keyAnswerAPIKey    = "answer.api_key"
	keyAnswerRateLimit = "answer.rate_limit"

	keyNEREnabled   = "ner.enabled"
	keyNERProvider  = "ner.provider"
	keyNERModel     = "ner.model"
	keyNERBaseURL   = "ner.base_url"
	keyNERAPIKey    = "ner.api_key"
	keyNERRateLimit = "ner.rate_limit"

	keyOCRLangs = "ocr.langs"
	keyOCRGPU   = "ocr.gpu"

	keyServerAddr = "server.addr"
	keyDataDir    = "data_dir"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvEnableRAG         = "ENABLE_RAG"
	EnvEnableNER         = "ENABLE_NER"
	EnvOCRLangs          = "EASYOCR_LANGS"
	EnvOCRGPU            = "EASYOCR_GPU"
	EnvEmbeddingProvider = "EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "EMBEDDING_MODEL"
	EnvOpenAIKey         = "OPENAI_API_KEY"
	EnvHuggingFaceToken  = "HF_TOKEN"
	EnvAnthropicKey      = "ANTHROPIC_API_KEY"
	EnvVectorBackend     = "VECTOR_BACKEND"
	EnvAddr              = "DOCQA_ADDR"
)

// defaultOllamaURL is used when a local provider has no base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnv applies environment overrides read through lookup, typically os.LookupEnv.
func WithEnv(lookup func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		s.lookupEnv = lookup
	}
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings: stored values over defaults,
// then environment overrides.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		RAG: domain.RAGSettings{
			Enabled:         s.getBool(keyRAGEnabled, defaults.RAG.Enabled),
			ChunkSize:       s.getInt(keyRAGChunkSize, defaults.RAG.ChunkSize),
			ChunkOverlap:    s.getInt(keyRAGChunkOverlap, defaults.RAG.ChunkOverlap),
			TopK:            s.getInt(keyRAGTopK, defaults.RAG.TopK),
			MaxContextChars: s.getInt(keyRAGMaxContext, defaults.RAG.MaxContextChars),
			Backend:         s.getBackend(defaults.RAG.Backend),
		},
		Embedding: domain.EmbeddingSettings{
			ProviderSettings: s.getProviderSettings(
				keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyEmbedRateLimit,
				defaults.Embedding.ProviderSettings,
			),
			CacheSize:       s.getInt(keyEmbedCacheSize, defaults.Embedding.CacheSize),
			PersistentCache: s.getBool(keyEmbedPersistent, defaults.Embedding.PersistentCache),
		},
		Answer: domain.AnswerSettings{
			ProviderSettings: s.getProviderSettings(
				keyAnswerProvider, keyAnswerModel, keyAnswerBaseURL, keyAnswerAPIKey, keyAnswerRateLimit,
				defaults.Answer.ProviderSettings,
			),
		},
		NER: domain.NERSettings{
			ProviderSettings: s.getProviderSettings(
				keyNERProvider, keyNERModel, keyNERBaseURL, keyNERAPIKey, keyNERRateLimit,
				defaults.NER.ProviderSettings,
			),
			Enabled: s.getBool(keyNEREnabled, defaults.NER.Enabled),
		},
		OCR: domain.OCRSettings{
			Langs: s.getStrings(keyOCRLangs, defaults.OCR.Langs),
			GPU:   s.getBool(keyOCRGPU, defaults.OCR.GPU),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
		DataDir: s.configStore.GetString(keyDataDir),
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv overlays environment variables on settings.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if s.lookupEnv == nil {
		return
	}

	if v, ok := s.envBool(EnvEnableRAG); ok {
		settings.RAG.Enabled = v
	}
	if v, ok := s.envBool(EnvEnableNER); ok {
		settings.NER.Enabled = v
	}
	if v, ok := s.env(EnvOCRLangs); ok {
		if langs := splitList(v); len(langs) > 0 {
			settings.OCR.Langs = langs
		}
	}
	if v, ok := s.envBool(EnvOCRGPU); ok {
		settings.OCR.GPU = v
	}
	if v, ok := s.env(EnvEmbeddingProvider); ok {
		if p := domain.AIProvider(v); p.IsValid() {
			if p != settings.Embedding.Provider && !s.hasEnv(EnvEmbeddingModel) {
				settings.Embedding.Model = domain.DefaultEmbeddingModels()[p]
			}
			settings.Embedding.Provider = p
		} else {
			logger.Warn("ignoring %s=%q: unknown provider", EnvEmbeddingProvider, v)
		}
	}
	if v, ok := s.env(EnvEmbeddingModel); ok {
		settings.Embedding.Model = v
	}
	if v, ok := s.env(EnvVectorBackend); ok {
		if b := domain.IndexBackend(v); b.IsValid() {
			settings.RAG.Backend = b
		} else {
			logger.Warn("ignoring %s=%q: unknown backend", EnvVectorBackend, v)
		}
	}
	if v, ok := s.env(EnvAddr); ok {
		settings.Server.Addr = v
	}

	keys := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:      EnvOpenAIKey,
		domain.AIProviderHuggingFace: EnvHuggingFaceToken,
		domain.AIProviderAnthropic:   EnvAnthropicKey,
	}
	for _, ps := range []*domain.ProviderSettings{
		&settings.Embedding.ProviderSettings,
		&settings.Answer.ProviderSettings,
		&settings.NER.ProviderSettings,
	} {
		if name, ok := keys[ps.Provider]; ok && ps.APIKey == "" {
			if v, ok := s.env(name); ok {
				ps.APIKey = v
			}
		}
	}
}

func (s *SettingsService) env(name string) (string, bool) {
	v, ok := s.lookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (s *SettingsService) hasEnv(name string) bool {
	_, ok := s.env(name)
	return ok
}

func (s *SettingsService) envBool(name string) (bool, bool) {
	v, ok := s.env(name)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("ignoring %s=%q: not a boolean", name, v)
		return false, false
	}
	return b, true
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyRAGEnabled, settings.RAG.Enabled},
		{keyRAGChunkSize, settings.RAG.ChunkSize},
		{keyRAGChunkOverlap, settings.RAG.ChunkOverlap},
		{keyRAGTopK, settings.RAG.TopK},
		{keyRAGMaxContext, settings.RAG.MaxContextChars},
		{keyRAGBackend, settings.RAG.Backend.String()},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRateLimit, settings.Embedding.RateLimit},
		{keyEmbedCacheSize, settings.Embedding.CacheSize},
		{keyEmbedPersistent, settings.Embedding.PersistentCache},
		{keyAnswerProvider, settings.Answer.Provider.String()},
		{keyAnswerModel, settings.Answer.Model},
		{keyAnswerBaseURL, settings.Answer.BaseURL},
		{keyAnswerRateLimit, settings.Answer.RateLimit},
		{keyNEREnabled, settings.NER.Enabled},
		{keyNERProvider, settings.NER.Provider.String()},
		{keyNERModel, settings.NER.Model},
		{keyNERBaseURL, settings.NER.BaseURL},
		{keyNERRateLimit, settings.NER.RateLimit},
		{keyOCRLangs, settings.OCR.Langs},
		{keyOCRGPU, settings.OCR.GPU},
		{keyServerAddr, settings.Server.Addr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Empty API keys never overwrite stored ones.
	secrets := []struct {
		key   string
		value string
	}{
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyAnswerAPIKey, settings.Answer.APIKey},
		{keyNERAPIKey, settings.NER.APIKey},
	}
	for _, v := range secrets {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetRAGEnabled toggles retrieval.
func (s *SettingsService) SetRAGEnabled(enabled bool) error {
	return s.configStore.Set(keyRAGEnabled, enabled)
}

// SetNEREnabled toggles entity extraction.
func (s *SettingsService) SetNEREnabled(enabled bool) error {
	return s.configStore.Set(keyNEREnabled, enabled)
}

// SetIndexBackend selects the vector index implementation.
func (s *SettingsService) SetIndexBackend(backend domain.IndexBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid index backend: %s", backend)
	}
	return s.configStore.Set(keyRAGBackend, backend.String())
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	return s.setProvider(keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		provider, model, apiKey, domain.DefaultEmbeddingModels())
}

// SetAnswerProvider configures the answer provider.
func (s *SettingsService) SetAnswerProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid answer provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	return s.setProvider(keyAnswerProvider, keyAnswerModel, keyAnswerBaseURL, keyAnswerAPIKey,
		provider, model, apiKey, domain.DefaultAnswerModels())
}

func (s *SettingsService) setProvider(
	keyProvider, keyModel, keyBaseURL, keyAPIKey string,
	provider domain.AIProvider, model, apiKey string,
	defaultModels map[domain.AIProvider]string,
) error {
	// Set model - use provided or default
	if model == "" {
		model = defaultModels[provider]
	}

	// Local providers need a base URL; cloud providers use their default
	baseURL := ""
	if provider.IsLocal() {
		baseURL = s.configStore.GetString(keyBaseURL)
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
	}

	for _, kv := range []struct {
		key   string
		value string
	}{
		{keyProvider, provider.String()},
		{keyModel, model},
		{keyBaseURL, baseURL},
		{keyAPIKey, apiKey},
	} {
		if err := s.configStore.Set(kv.key, kv.value); err != nil {
			return fmt.Errorf("save %s: %w", kv.key, err)
		}
	}
	return nil
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", settings.RAG.ChunkSize)
	}
	if settings.RAG.ChunkOverlap < 0 || settings.RAG.ChunkOverlap >= settings.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, %d), got %d",
			settings.RAG.ChunkSize, settings.RAG.ChunkOverlap)
	}
	if settings.RAG.Enabled && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("retrieval requires an embedding provider: %s needs an API key",
			settings.Embedding.Provider)
	}
	if !settings.Answer.IsConfigured() {
		return fmt.Errorf("answer provider %s is not configured", settings.Answer.Provider)
	}
	if settings.NER.Enabled && !settings.NER.IsConfigured() {
		return fmt.Errorf("entity extraction provider %s is not configured", settings.NER.Provider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateAnswerConfig validates the current answer configuration by pinging the provider.
func (s *SettingsService) ValidateAnswerConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateAnswer(&settings.Answer)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getStrings(key string, defaultVal []string) []string {
	if val := s.configStore.GetStringSlice(key); len(val) > 0 {
		return val
	}
	// A comma-separated string is accepted too.
	if list := splitList(s.configStore.GetString(key)); len(list) > 0 {
		return list
	}
	return defaultVal
}

func (s *SettingsService) getBackend(defaultVal domain.IndexBackend) domain.IndexBackend {
	backend := domain.IndexBackend(s.configStore.GetString(keyRAGBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getProviderSettings(
	keyProvider, keyModel, keyBaseURL, keyAPIKey, keyRateLimit string,
	defaults domain.ProviderSettings,
) domain.ProviderSettings {
	ps := domain.ProviderSettings{
		Provider:  s.getProvider(keyProvider, defaults.Provider),
		BaseURL:   s.configStore.GetString(keyBaseURL), // No default - empty is valid for cloud providers
		APIKey:    s.configStore.GetString(keyAPIKey),
		RateLimit: s.configStore.GetFloat(keyRateLimit),
	}
	ps.Model = s.configStore.GetString(keyModel)
	if ps.Model == "" {
		ps.Model = defaults.Model
		if ps.Provider != defaults.Provider {
			ps.Model = ""
		}
	}
	return ps
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
