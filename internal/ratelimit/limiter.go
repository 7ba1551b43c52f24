// Package ratelimit implements fixed-window rate limiting keyed by an
// arbitrary string (typically ip+route). State is process-local and owned by
// the Limiter instance; it does not coordinate across server instances.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	count int
	reset time.Time
}

// Limiter bounds calls per key to max within each window.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

// New creates a limiter allowing max calls per window for each key.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow records a call for key. When the call fits the current window it
// succeeds; the first call after a window elapses resets the count to 1.
// On rejection retryAfter reports how long until the window resets, never
// negative.
func (l *Limiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	b, exists := l.buckets[key]
	if !exists || !now.Before(b.reset) {
		l.buckets[key] = &bucket{count: 1, reset: now.Add(l.window)}
		return true, 0
	}

	if b.count >= l.max {
		retryAfter = b.reset.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	b.count++
	return true, 0
}

// Sweep drops buckets whose window has long elapsed. Call periodically to
// keep the key map from accumulating one-off callers.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, b := range l.buckets {
		if now.Sub(b.reset) > l.window {
			delete(l.buckets, key)
		}
	}
}
