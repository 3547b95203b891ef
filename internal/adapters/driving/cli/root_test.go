package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockIngestService implements driving.IngestService for testing.
// Without a canned result every file is uploaded into session "s1".
type mockIngestService struct {
	result     *domain.IngestResult
	err        error
	sessionIDs []string
	uploads    [][]domain.RawDocument
	extensions []string
}

func (m *mockIngestService) Upload(_ context.Context, sessionID string, files []domain.RawDocument) (*domain.IngestResult, error) {
	m.sessionIDs = append(m.sessionIDs, sessionID)
	m.uploads = append(m.uploads, files)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}

	result := &domain.IngestResult{SessionID: sessionID, RAGReady: true}
	if result.SessionID == "" {
		result.SessionID = "s1"
	}
	for _, f := range files {
		result.Uploaded = append(result.Uploaded, domain.UploadedFile{
			Filename: f.Filename,
			Chars:    len([]rune(string(f.Content))),
			Chunks:   1,
		})
	}
	return result, nil
}

func (m *mockIngestService) IngestText(ctx context.Context, sessionID string, docs []domain.Document) (*domain.IngestResult, error) {
	files := make([]domain.RawDocument, 0, len(docs))
	for _, d := range docs {
		files = append(files, domain.RawDocument{Filename: d.Filename, Content: []byte(d.Text)})
	}
	return m.Upload(ctx, sessionID, files)
}

func (m *mockIngestService) SupportedExtensions() []string {
	return m.extensions
}

// mockAnswerService implements driving.AnswerService for testing.
type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	requests []domain.AskRequest
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.AskRequest) (*domain.Answer, error) {
	m.requests = append(m.requests, req)
	return m.answer, m.err
}

// mockSessionService implements driving.SessionService for testing.
type mockSessionService struct{}

func (m *mockSessionService) Get(_ context.Context, _ string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}

func (m *mockSessionService) List(_ context.Context) ([]domain.Session, error) {
	return nil, nil
}

func (m *mockSessionService) Len() int {
	return 0
}

var (
	_ driving.IngestService  = (*mockIngestService)(nil)
	_ driving.AnswerService  = (*mockAnswerService)(nil)
	_ driving.SessionService = (*mockSessionService)(nil)
)

// setServices installs core services and restores the previous ones after the test.
func setServices(t *testing.T, ingest driving.IngestService, answer driving.AnswerService, sessions driving.SessionService) {
	t.Helper()
	origIngest, origAnswer, origSessions := ingestService, answerService, sessionService
	origSettings, origApp, origBootstrap := settingsService, appSettings, bootstrap
	t.Cleanup(func() {
		ingestService, answerService, sessionService = origIngest, origAnswer, origSessions
		settingsService, appSettings, bootstrap = origSettings, origApp, origBootstrap
	})
	ingestService, answerService, sessionService = ingest, answer, sessions
	appSettings = nil
	bootstrap = Bootstrap{}
}

// resetFlags restores every flag of cmd to its default so values do not
// leak between Execute calls.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs rootCmd with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeFile creates a file under a temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "docqa", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"ask", "chat", "ingest", "mcp", "serve", "settings", "version", "watch"} {
		assert.True(t, names[want], want)
	}
}

func TestPersistentPreRun_LoadsEnvFile(t *testing.T) {
	const key = "DOCQA_CLI_TEST_ENV"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	origEnv, origVerbose := envFile, verbose
	defer func() { envFile, verbose = origEnv, origVerbose }()

	envFile = writeFile(t, ".env", key+"=from-dotenv\n")
	require.NoError(t, persistentPreRun(nil, nil))
	assert.Equal(t, "from-dotenv", os.Getenv(key))
}

func TestPersistentPreRun_MissingEnvFile(t *testing.T) {
	origEnv := envFile
	defer func() { envFile = origEnv }()

	envFile = filepath.Join(t.TempDir(), "missing.env")
	assert.NoError(t, persistentPreRun(nil, nil))

	envFile = ""
	assert.NoError(t, persistentPreRun(nil, nil))
}

func TestRequireSettings_NotConfigured(t *testing.T) {
	setServices(t, nil, nil, nil)
	settingsService = nil

	err := requireSettings()
	assert.True(t, errors.Is(err, errServicesNotConfigured))
}

func TestRequireSettings_UsesBootstrap(t *testing.T) {
	setServices(t, nil, nil, nil)
	settingsService = nil

	origDir := configDir
	defer func() { configDir = origDir }()
	configDir = "/tmp/docqa-test"

	var gotDir string
	bootstrap.Settings = func(dir string) (driving.SettingsService, error) {
		gotDir = dir
		return newMockSettingsService(), nil
	}

	require.NoError(t, requireSettings())
	assert.Equal(t, "/tmp/docqa-test", gotDir)
	assert.NotNil(t, settingsService)
}

func TestRequireSettings_BootstrapError(t *testing.T) {
	setServices(t, nil, nil, nil)
	settingsService = nil
	bootstrap.Settings = func(string) (driving.SettingsService, error) {
		return nil, errors.New("disk full")
	}

	err := requireSettings()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening settings: disk full")
}

func TestRequireCore_BuildsOnceAndCloses(t *testing.T) {
	setServices(t, nil, nil, nil)
	settingsService = newMockSettingsService()

	builds, closed := 0, 0
	bootstrap.Core = func(_ context.Context, settings *domain.AppSettings) (*Services, error) {
		builds++
		assert.Equal(t, ":8000", settings.Server.Addr)
		return &Services{
			Ingest:   &mockIngestService{},
			Answer:   &mockAnswerService{},
			Sessions: &mockSessionService{},
			Close:    func() { closed++ },
		}, nil
	}

	require.NoError(t, requireCore(context.Background()))
	require.NoError(t, requireCore(context.Background()))
	assert.Equal(t, 1, builds)
	assert.NotNil(t, ingestService)

	closeServices()
	assert.Equal(t, 1, closed)
	closeServices()
	assert.Equal(t, 1, closed)
}

func TestRequireCore_NotConfigured(t *testing.T) {
	setServices(t, nil, nil, nil)

	err := requireCore(context.Background())
	assert.True(t, errors.Is(err, errServicesNotConfigured))
}

func TestRequireCore_BuildError(t *testing.T) {
	setServices(t, nil, nil, nil)
	settingsService = newMockSettingsService()
	bootstrap.Core = func(context.Context, *domain.AppSettings) (*Services, error) {
		return nil, errors.New("no providers")
	}

	err := requireCore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting services: no providers")
}

func TestRAGDefault(t *testing.T) {
	setServices(t, nil, nil, nil)
	assert.Equal(t, domain.DefaultAppSettings().RAG.Enabled, ragDefault())

	settings := domain.DefaultAppSettings()
	settings.RAG.Enabled = false
	appSettings = &settings
	assert.False(t, ragDefault())
}
