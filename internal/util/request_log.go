package util

import (
	"net/http"
	"time"
)

type responseStats struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseStats) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseStats) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// WithRequestLog writes one structured record per request using the
// request-scoped logger, so the request id rides along automatically.
func WithRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		stats := &responseStats{ResponseWriter: w}
		next.ServeHTTP(stats, r)
		status := stats.status
		if status == 0 {
			status = http.StatusOK
		}
		LoggerFromContext(r.Context()).Info(
			"http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", stats.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
