package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultMaxBodyBytes = 11 << 20
	defaultTimeout      = 65 * time.Second
)

// Options configures the middleware stack.
type Options struct {
	RateLimiter  *RateLimiter
	APIKey       string
	MaxBodyBytes int64
	Timeout      time.Duration
	Logger       *slog.Logger
}

// Chain wraps the handler with the full middleware stack.
// Order: CORS → RequestID → Logging → Metrics → RateLimit → APIKey → MaxBytes → Timeout → mux
func Chain(handler http.Handler, opts Options) http.Handler {
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	h := handler
	h = http.TimeoutHandler(h, timeout, `{"error":"request timeout"}`)
	h = MaxBytes(maxBody)(h)
	h = APIKey(opts.APIKey)(h)
	h = RateLimit(opts.RateLimiter)(h)
	h = Metrics(h)
	h = Logging(opts.Logger)(h)
	h = RequestID(h)
	h = CORS(h)
	return h
}
