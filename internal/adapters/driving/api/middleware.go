package api

import (
	"net/http"
	"time"

	"github.com/custodia-labs/docqa/internal/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	nbytes int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.nbytes += n
	return n, err
}

// logRequests logs method, path, status and duration of every request.
// Server errors are logged as warnings so they show without --verbose.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		dur := time.Since(start).Round(time.Millisecond)
		if rec.status >= http.StatusInternalServerError {
			logger.Warn("%s %s %d %s", r.Method, r.URL.Path, rec.status, dur)
			return
		}
		logger.Info("%s %s %d %s (%d bytes)", r.Method, r.URL.Path, rec.status, dur, rec.nbytes)
	})
}
