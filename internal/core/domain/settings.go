package domain

const unknownDescription = "Unknown"

// AIProvider identifies a model provider for embeddings, answers or entities.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHuggingFace is the Hugging Face Inference API.
	AIProviderHuggingFace AIProvider = "huggingface"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or a compatible server.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHuggingFace, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
// The Hugging Face Inference API accepts anonymous requests at a low rate.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHuggingFace:
		return "Hugging Face Inference API"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendAuto uses the exact backend when compiled in, else brute force.
	IndexBackendAuto IndexBackend = "auto"

	// IndexBackendExact is the native flat inner-product index.
	IndexBackendExact IndexBackend = "exact"

	// IndexBackendBruteForce is the pure Go dot product scan.
	IndexBackendBruteForce IndexBackend = "bruteforce"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendAuto, IndexBackendExact, IndexBackendBruteForce:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b IndexBackend) String() string {
	return string(b)
}

// ProviderSettings holds connection settings for one model capability.
type ProviderSettings struct {
	// Provider is the service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// APIKey is the API key or token.
	APIKey string

	// RateLimit is the sustained requests per second (0 = unlimited).
	RateLimit float64
}

// IsConfigured returns true if the provider is set up.
func (p ProviderSettings) IsConfigured() bool {
	if !p.Provider.IsValid() {
		return false
	}
	if p.Provider.RequiresAPIKey() && p.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	ProviderSettings

	// CacheSize is the number of embeddings kept in memory (0 disables).
	CacheSize int

	// PersistentCache stores embeddings in SQLite under the data directory.
	PersistentCache bool
}

// AnswerSettings holds answer extractor configuration.
// Hugging Face uses an extractive QA model; other providers prompt an LLM.
type AnswerSettings struct {
	ProviderSettings
}

// NERSettings holds entity extraction configuration.
type NERSettings struct {
	ProviderSettings

	// Enabled attaches entities to answers.
	Enabled bool
}

// RAGSettings holds retrieval configuration.
type RAGSettings struct {
	// Enabled indexes uploads and retrieves by default.
	Enabled bool

	// ChunkSize is the window size in words.
	ChunkSize int

	// ChunkOverlap is the number of words shared by successive windows.
	ChunkOverlap int

	// TopK is the default number of retrieved chunks.
	TopK int

	// MaxContextChars bounds the full-context fallback.
	MaxContextChars int

	// Backend selects the vector index implementation.
	Backend IndexBackend
}

// OCRSettings holds text recognition configuration.
type OCRSettings struct {
	// Langs are ISO-639-1 language codes.
	Langs []string

	// GPU requests GPU inference where the engine supports it.
	GPU bool
}

// ServerSettings holds HTTP listener configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	RAG       RAGSettings
	Embedding EmbeddingSettings
	Answer    AnswerSettings
	NER       NERSettings
	OCR       OCRSettings
	Server    ServerSettings

	// DataDir holds the persistent embedding cache.
	DataDir string
}

// DefaultAppSettings returns settings with sensible defaults.
// Models default to the Hugging Face checkpoints the service was built around.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		RAG: RAGSettings{
			Enabled:         true,
			ChunkSize:       600,
			ChunkOverlap:    100,
			TopK:            DefaultTopK,
			MaxContextChars: 20000,
			Backend:         IndexBackendAuto,
		},
		Embedding: EmbeddingSettings{
			ProviderSettings: ProviderSettings{
				Provider: AIProviderHuggingFace,
				Model:    DefaultEmbeddingModels()[AIProviderHuggingFace],
			},
			CacheSize: 4096,
		},
		Answer: AnswerSettings{
			ProviderSettings: ProviderSettings{
				Provider: AIProviderHuggingFace,
				Model:    DefaultAnswerModels()[AIProviderHuggingFace],
			},
		},
		NER: NERSettings{
			ProviderSettings: ProviderSettings{
				Provider: AIProviderHuggingFace,
				Model:    "dslim/bert-base-NER",
			},
			Enabled: false,
		},
		OCR: OCRSettings{
			Langs: []string{"en"},
			GPU:   false,
		},
		Server: ServerSettings{
			Addr: ":8000",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHuggingFace,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllAnswerProviders returns providers that can answer questions.
func AllAnswerProviders() []AIProvider {
	return []AIProvider{
		AIProviderHuggingFace,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHuggingFace: "sentence-transformers/all-MiniLM-L6-v2",
		AIProviderOllama:      "nomic-embed-text",
		AIProviderOpenAI:      "text-embedding-3-small",
	}
}

// DefaultAnswerModels returns default models for each answer provider.
func DefaultAnswerModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHuggingFace: "distilbert-base-cased-distilled-squad",
		AIProviderOllama:      "llama3.2",
		AIProviderOpenAI:      "gpt-4o-mini",
		AIProviderAnthropic:   "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Hugging Face models
		"sentence-transformers/all-MiniLM-L6-v2":  384,
		"sentence-transformers/all-mpnet-base-v2": 768,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
