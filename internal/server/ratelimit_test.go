package server

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("203.0.113.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("203.0.113.1") {
		t.Fatal("fourth request within the window should be refused")
	}
	if !rl.Allow("203.0.113.2") {
		t.Fatal("a different client should have its own bucket")
	}

	now = now.Add(59 * time.Second)
	if rl.Allow("203.0.113.1") {
		t.Fatal("bucket should not refill before the window passes")
	}

	now = now.Add(time.Second)
	if !rl.Allow("203.0.113.1") {
		t.Fatal("bucket should refill after the window")
	}
}

func TestRateLimiterZeroCapacity(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	defer rl.Stop()

	if rl.Allow("203.0.113.1") || rl.Allow("203.0.113.1") {
		t.Fatal("zero capacity should refuse every request")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("203.0.113.1")
	now = now.Add(2 * time.Hour)
	rl.Allow("203.0.113.2")
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["203.0.113.1"]; ok {
		t.Error("idle bucket should be removed")
	}
	if _, ok := rl.clients["203.0.113.2"]; !ok {
		t.Error("active bucket should be kept")
	}
}

func TestRateLimiterStopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	rl.Stop()
}
