package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/logger"
)

func captureLog(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(verbose)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
	})
	return &buf
}

func TestLogRequests(t *testing.T) {
	buf := captureLog(t, true)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	logRequests(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.Contains(t, buf.String(), "GET /healthz 200")
	assert.Contains(t, buf.String(), "(2 bytes)")
}

func TestLogRequests_ServerErrorsAreWarnings(t *testing.T) {
	buf := captureLog(t, false)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	rr := httptest.NewRecorder()
	logRequests(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ask", nil))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, buf.String(), "POST /ask 502")
}

func TestLogRequests_QuietWhenNotVerbose(t *testing.T) {
	buf := captureLog(t, false)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	logRequests(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, buf.String())
}
