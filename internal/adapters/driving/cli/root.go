// Package cli provides the docqa command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time.
var version = "dev"

var (
	verbose   bool
	configDir string
	envFile   string
)

// Services are built on first use by the commands that need them.
// Tests assign them directly.
var (
	ingestService   driving.IngestService
	answerService   driving.AnswerService
	sessionService  driving.SessionService
	settingsService driving.SettingsService
	appSettings     *domain.AppSettings
)

var errServicesNotConfigured = errors.New("services not configured")

// Services holds the core services built from settings.
type Services struct {
	Ingest   driving.IngestService
	Answer   driving.AnswerService
	Sessions driving.SessionService

	// Close releases model clients and stores.
	Close func()
}

// Bootstrap builds services on demand so commands that only touch settings
// never contact model providers.
type Bootstrap struct {
	// Settings opens the settings service for a config directory.
	Settings func(configDir string) (driving.SettingsService, error)

	// Core builds the ingest, answer and session services.
	Core func(ctx context.Context, settings *domain.AppSettings) (*Services, error)
}

var (
	bootstrap Bootstrap
	closersMu sync.Mutex
	closers   []func()
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your documents",
	Long: `docqa extracts text from uploaded documents, indexes them per session
and answers questions with evidence spans, sources and named entities.

Run 'docqa serve' for the HTTP API, 'docqa chat FILE...' for the terminal UI
or 'docqa ask -f FILE "question"' for a one-off answer.`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.docqa)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before settings")
}

func persistentPreRun(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", envFile, err)
	}
	logger.Debug("loaded environment from %s", envFile)
	return nil
}

// SetBootstrap sets the service constructors used by commands.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by 'docqa version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// requireSettings opens the settings service if it is not set.
func requireSettings() error {
	if settingsService != nil {
		return nil
	}
	if bootstrap.Settings == nil {
		return fmt.Errorf("settings: %w", errServicesNotConfigured)
	}
	svc, err := bootstrap.Settings(configDir)
	if err != nil {
		return fmt.Errorf("opening settings: %w", err)
	}
	settingsService = svc
	return nil
}

// loadSettings resolves the effective settings once.
func loadSettings() (*domain.AppSettings, error) {
	if appSettings != nil {
		return appSettings, nil
	}
	if err := requireSettings(); err != nil {
		return nil, err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	appSettings = settings
	return appSettings, nil
}

// requireCore builds the core services if any is missing.
func requireCore(ctx context.Context) error {
	if ingestService != nil && answerService != nil && sessionService != nil {
		return nil
	}
	if bootstrap.Core == nil {
		return fmt.Errorf("core: %w", errServicesNotConfigured)
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	logger.Section("Starting services")
	svcs, err := bootstrap.Core(ctx, settings)
	if err != nil {
		return fmt.Errorf("starting services: %w", err)
	}
	ingestService = svcs.Ingest
	answerService = svcs.Answer
	sessionService = svcs.Sessions
	if svcs.Close != nil {
		closersMu.Lock()
		closers = append(closers, svcs.Close)
		closersMu.Unlock()
	}
	return nil
}

// ragDefault reports whether retrieval is on by default.
func ragDefault() bool {
	if appSettings == nil {
		return domain.DefaultAppSettings().RAG.Enabled
	}
	return appSettings.RAG.Enabled
}

func closeServices() {
	closersMu.Lock()
	defer closersMu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}
