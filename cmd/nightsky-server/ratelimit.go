package main

import (
	"math"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/unklstewy/nightsky/internal/metrics"
)

// newRateLimiter limits each client IP to burst requests per sliding window
// of burst/perSecond, at least one second long. It returns nil when
// perSecond is not positive, which disables limiting.
func newRateLimiter(perSecond float64, burst int) *httprate.RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	limit, window := rateWindow(perSecond, burst)
	return httprate.NewRateLimiter(limit, window,
		httprate.WithKeyByIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RateLimitedTotal.Inc()
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

func rateWindow(perSecond float64, burst int) (int, time.Duration) {
	if burst < 1 {
		burst = 1
	}
	window := time.Duration(float64(burst) / perSecond * float64(time.Second))
	if window < time.Second {
		return int(math.Ceil(perSecond)), time.Second
	}
	return burst, window
}

// rateLimit wraps next in the limiter, or returns it unchanged when
// limiting is disabled.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Handler(next)
}
