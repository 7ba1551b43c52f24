package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_FixedWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New(3, time.Second)
	l.now = func() time.Time { return now }

	// Three calls within the window succeed.
	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("key")
		if !ok {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}

	// The fourth is rejected with a positive retry-after.
	ok, retryAfter := l.Allow("key")
	if ok {
		t.Fatal("fourth call within the window should be rejected")
	}
	if retryAfter <= 0 {
		t.Errorf("retryAfter = %v, want > 0", retryAfter)
	}

	// After the window elapses the count resets to 1.
	now = now.Add(time.Second)
	ok, _ = l.Allow("key")
	if !ok {
		t.Fatal("first call of the new window should be allowed")
	}
	ok, _ = l.Allow("key")
	if !ok {
		t.Fatal("second call of the new window should be allowed")
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	if ok, _ := l.Allow("a"); !ok {
		t.Fatal("first call for key a should be allowed")
	}
	if ok, _ := l.Allow("a"); ok {
		t.Fatal("second call for key a should be rejected")
	}
	if ok, _ := l.Allow("b"); !ok {
		t.Error("key b has its own window")
	}
}

func TestLimiter_RetryAfterNeverNegative(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New(1, time.Second)
	l.now = func() time.Time { return now }

	l.Allow("key")

	// Exactly at the reset boundary the window rolls over instead of
	// reporting a negative retry-after.
	now = now.Add(time.Second)
	ok, retryAfter := l.Allow("key")
	if !ok {
		t.Fatal("call at the reset boundary should start a new window")
	}
	if retryAfter != 0 {
		t.Errorf("retryAfter = %v, want 0", retryAfter)
	}
}

func TestLimiter_Sweep(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New(1, time.Second)
	l.now = func() time.Time { return now }

	l.Allow("stale")
	now = now.Add(3 * time.Second)
	l.Sweep()

	l.mu.Lock()
	_, exists := l.buckets["stale"]
	l.mu.Unlock()
	if exists {
		t.Error("stale bucket should have been swept")
	}
}
