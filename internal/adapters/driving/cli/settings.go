package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure retrieval, model providers and other options.

Settings live in config.toml (or config.yaml) under the config directory.
Environment variables such as ENABLE_RAG and OPENAI_API_KEY override stored values.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsRAGCmd = &cobra.Command{
	Use:       "rag on|off",
	Short:     "Enable or disable retrieval",
	Long:      `With retrieval off, uploads are not indexed and answers use the full document text.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runSettingsRAG,
}

var settingsNERCmd = &cobra.Command{
	Use:       "ner on|off",
	Short:     "Enable or disable named entity extraction",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runSettingsNER,
}

var settingsBackendCmd = &cobra.Command{
	Use:   "backend auto|exact|bruteforce",
	Short: "Select the vector index backend",
	Long: `Select the vector index implementation.

Available backends:
  auto        - exact when built with cgo, otherwise bruteforce
  exact       - native flat inner-product index (requires cgo)
  bruteforce  - pure Go dot product scan`,
	Args: cobra.ExactArgs(1),
	ValidArgs: []string{
		string(domain.IndexBackendAuto),
		string(domain.IndexBackendExact),
		string(domain.IndexBackendBruteForce),
	},
	RunE: runSettingsBackend,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index chunks and questions.`,
	RunE:  runSettingsEmbedding,
}

var settingsAnswerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Configure answer provider",
	Long: `Configure the provider that extracts answers from context.

Hugging Face runs an extractive question answering model. Ollama, OpenAI and
Anthropic prompt a generative model to quote the answer from the context.`,
	RunE: runSettingsAnswer,
}

// stdin is read by the interactive prompts.
var stdin io.Reader = os.Stdin

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsRAGCmd)
	settingsCmd.AddCommand(settingsNERCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsAnswerCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.RAG.Enabled))
	cmd.Printf("  Chunk size: %d words (overlap %d)\n", settings.RAG.ChunkSize, settings.RAG.ChunkOverlap)
	cmd.Printf("  Top K: %d\n", settings.RAG.TopK)
	cmd.Printf("  Max context: %d chars\n", settings.RAG.MaxContextChars)
	cmd.Printf("  Backend: %s\n", settings.RAG.Backend)
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.ProviderSettings)
	cmd.Printf("  Cache: %d entries, persistent %s\n", settings.Embedding.CacheSize, yesNo(settings.Embedding.PersistentCache))
	cmd.Println()

	cmd.Println("[Answer]")
	printProvider(cmd, settings.Answer.ProviderSettings)
	cmd.Println()

	cmd.Println("[Entities]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.NER.Enabled))
	if settings.NER.Enabled {
		printProvider(cmd, settings.NER.ProviderSettings)
	}
	cmd.Println()

	cmd.Println("[OCR]")
	cmd.Printf("  Languages: %s\n", strings.Join(settings.OCR.Langs, ", "))
	cmd.Printf("  GPU: %s\n", yesNo(settings.OCR.GPU))
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	if settings.DataDir != "" {
		cmd.Printf("  Data directory: %s\n", settings.DataDir)
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docqa settings embedding' or 'docqa settings answer' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, p domain.ProviderSettings) {
	cmd.Printf("  Provider: %s\n", p.Provider.Description())
	cmd.Printf("  Model: %s\n", p.Model)
	if p.BaseURL != "" || p.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", valueOr(p.BaseURL, "(default)"))
	}
	if p.Provider.RequiresAPIKey() {
		if p.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(p.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if p.RateLimit > 0 {
		cmd.Printf("  Rate limit: %.2f req/s\n", p.RateLimit)
	}
	status := "configured"
	if !p.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsRAG(cmd *cobra.Command, args []string) error {
	enabled, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.SetRAGEnabled(enabled); err != nil {
		return fmt.Errorf("failed to set retrieval: %w", err)
	}
	cmd.Printf("Retrieval: %s\n", args[0])
	return nil
}

func runSettingsNER(cmd *cobra.Command, args []string) error {
	enabled, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.SetNEREnabled(enabled); err != nil {
		return fmt.Errorf("failed to set entity extraction: %w", err)
	}
	cmd.Printf("Entity extraction: %s\n", args[0])
	return nil
}

func runSettingsBackend(cmd *cobra.Command, args []string) error {
	backend := domain.IndexBackend(strings.ToLower(args[0]))
	if !backend.IsValid() {
		return fmt.Errorf("unknown backend %q", args[0])
	}
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.SetIndexBackend(backend); err != nil {
		return fmt.Errorf("failed to set backend: %w", err)
	}
	cmd.Printf("Vector index backend set to: %s\n", backend)
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	return configureProvider(cmd, bufio.NewReader(stdin), embeddingPrompt)
}

func runSettingsAnswer(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	return configureProvider(cmd, bufio.NewReader(stdin), answerPrompt)
}

// providerPrompt describes one provider capability to configure.
type providerPrompt struct {
	name      string
	providers func() []domain.AIProvider
	defaults  func() map[domain.AIProvider]string
	set       func(provider domain.AIProvider, model, apiKey string) error
	validate  func() error
}

var embeddingPrompt = providerPrompt{
	name:      "Embedding",
	providers: domain.AllEmbeddingProviders,
	defaults:  domain.DefaultEmbeddingModels,
	set: func(p domain.AIProvider, model, apiKey string) error {
		return settingsService.SetEmbeddingProvider(p, model, apiKey)
	},
	validate: func() error { return settingsService.ValidateEmbeddingConfig() },
}

var answerPrompt = providerPrompt{
	name:      "Answer",
	providers: domain.AllAnswerProviders,
	defaults:  domain.DefaultAnswerModels,
	set: func(p domain.AIProvider, model, apiKey string) error {
		return settingsService.SetAnswerProvider(p, model, apiKey)
	},
	validate: func() error { return settingsService.ValidateAnswerConfig() },
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, prompt providerPrompt) error {
	cmd.Printf("Select %s Provider\n", prompt.name)
	providers := prompt.providers()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := prompt.defaults()[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	name := strings.ToLower(prompt.name)
	if err := prompt.set(selected, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", name, err)
	}

	cmd.Print("Validating configuration... ")
	if err := prompt.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", name, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", prompt.name, selected.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal, else from reader.
func readPassword(reader *bufio.Reader) string {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
