package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GeigerTiger55/messagely/internal/metrics"
)

// statusWriter wraps http.ResponseWriter to capture status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Metrics returns middleware that records Prometheus metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, path, strconv.Itoa(wrapped.status),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method, path,
		).Observe(duration)
	})
}

// normalizePath normalizes paths to avoid high cardinality in metrics.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/users/") && len(path) > len("/users/") {
		rest := path[len("/users/"):]
		switch {
		case strings.HasSuffix(rest, "/to"):
			return "/users/:username/to"
		case strings.HasSuffix(rest, "/from"):
			return "/users/:username/from"
		default:
			return "/users/:username"
		}
	}
	if strings.HasPrefix(path, "/messages/") && len(path) > len("/messages/") {
		if strings.HasSuffix(path, "/read") {
			return "/messages/:id/read"
		}
		return "/messages/:id"
	}
	return path
}
