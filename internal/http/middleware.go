package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const headerRequestID = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(status int) {
	if s.status == 0 {
		s.status = status
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(p)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// withRequestContext tags each request with an id and request scoped log
// fields, then logs the outcome.
func withRequestContext(next http.Handler, logger interfaces.Logger, clock interfaces.Clock) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := clock()
		requestID := strings.TrimSpace(r.Header.Get(headerRequestID))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		ctx := logging.ContextWithFields(r.Context(), map[string]any{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		entry := logger.WithContext(ctx)
		args := []any{"status", status, "bytes", rec.bytes, "elapsed", clock().Sub(started)}
		if status >= http.StatusInternalServerError {
			entry.Warn("http.request", args...)
			return
		}
		entry.Debug("http.request", args...)
	})
}

// withCORS allows cross origin reads from the configured origins. With no
// origins the handler is returned unchanged.
func withCORS(next http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return next
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", headerRequestID},
		ExposedHeaders: []string{headerRequestID, headerCacheStatus},
		MaxAge:         600,
	}).Handler(next)
}
