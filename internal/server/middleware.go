package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/shared"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// RequestLogger logs relay requests compactly and other requests only when they do not return 200.
//
// Every response carries an X-Request-Id header matching the logged id.
func RequestLogger(logger *log.Logger, relayPrefix string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := shared.ShortID()
			w.Header().Set("X-Request-Id", id)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			if strings.HasPrefix(r.URL.Path, relayPrefix) {
				logger.Info("[proxy]", "id", id, "method", r.Method, "path", r.URL.Path)
				return
			}
			if rec.status != http.StatusOK {
				logger.Warn("request", "id", id, "method", r.Method, "path", r.URL.Path, "status", rec.status)
			}
		})
	}
}
