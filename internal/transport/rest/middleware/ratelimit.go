package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pinkknives/skolapp-realtime/internal/ratelimit"
)

// RateLimitMiddleware applies a fixed-window budget per caller and route.
// The limiter's bucket store belongs to this instance: created once per
// process, cleared only on restart.
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
}

// NewRateLimitMiddleware creates a rate limit middleware allowing max
// requests per window for each ip+route key.
func NewRateLimitMiddleware(max int, window time.Duration) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: ratelimit.New(max, window)}
}

// Limit rejects callers over budget with 429 and a retry-after duration.
// Requests are rejected, never queued.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r) + ":" + r.URL.Path

		ok, retryAfter := m.limiter.Allow(key)
		if !ok {
			retryMs := retryAfter.Milliseconds()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.FormatInt((retryMs+999)/1000, 10))
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"error":"rate limit exceeded","retryAfterMs":%d}`, retryMs)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP keys buckets on the originating client. X-Forwarded-For is a
// comma-separated hop list; only the first element names the client, and
// keying on the raw header would let a caller mint fresh buckets by varying
// appended hops.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
