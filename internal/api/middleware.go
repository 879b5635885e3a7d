// internal/api/middleware.go
package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/common/metrics"
)

// tokenBucket is a per-client token bucket. Tokens refill continuously at
// requests/window and the bucket never holds more than a full window's worth.
type tokenBucket struct {
	tokens float64
	last   time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	max     float64
	refill  float64 // tokens per second
	window  int     // seconds, for the Retry-After header
}

func newRateLimiter(requests, windowSeconds int) *rateLimiter {
	return &rateLimiter{
		buckets: make(map[string]*tokenBucket),
		max:     float64(requests),
		refill:  float64(requests) / float64(windowSeconds),
		window:  windowSeconds,
	}
}

func (rl *rateLimiter) allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[clientID]
	if !ok {
		b = &tokenBucket{tokens: rl.max, last: now}
		rl.buckets[clientID] = b
	}

	b.tokens += now.Sub(b.last).Seconds() * rl.refill
	if b.tokens > rl.max {
		b.tokens = rl.max
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.limiter.allow(host) {
			metrics.RequestsThrottled.Inc()
			w.Header().Set("Retry-After", strconv.Itoa(s.limiter.window))
			commonerrors.WriteError(w, commonerrors.NewRateLimitError(
				int(s.limiter.max), s.limiter.window))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request completed", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
