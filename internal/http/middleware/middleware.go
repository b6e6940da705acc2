package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"marine-catalog/internal/logger"
)

type options struct {
	skips map[string]struct{}
}

// Option configures the request logger.
type Option func(*options)

// WithSkips suppresses logging for the given paths (health checks etc).
func WithSkips(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			o.skips[p] = struct{}{}
		}
	}
}

// LogRequests logs one line per request with a generated request id. The id
// is echoed in the X-Request-ID response header for correlation.
func LogRequests(opts ...Option) func(http.Handler) http.Handler {
	o := &options{skips: map[string]struct{}{}}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := o.skips[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}

			reqID := uuid.NewString()
			w.Header().Set("X-Request-ID", reqID)

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			logger.Infof("%s %s -> %d (%s) reqid=%s remote=%s",
				r.Method, r.URL.Path, sw.status, time.Since(start), reqID, r.RemoteAddr)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
