package middleware

import (
	"net/http"
	"time"

	"clam-storefront/internal/logger"
)

type options struct {
	skips map[string]struct{}
}

// Option configures LogRequests.
type Option func(*options)

// WithSkips suppresses logging for the exact paths given.
func WithSkips(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			o.skips[p] = struct{}{}
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// LogRequests logs one line per request with status and latency.
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

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			logger.Infof("%s %s status=%d bytes=%d dur=%s",
				r.Method, r.URL.RequestURI(), rec.status, rec.bytes, time.Since(start))
		})
	}
}
