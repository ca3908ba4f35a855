package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowBurst(t *testing.T) {
	rl := New(1, 3)
	defer rl.Stop()

	for i := range 3 {
		if !rl.Allow("203.0.113.7") {
			t.Fatalf("request %d should fit the burst", i+1)
		}
	}
	if rl.Allow("203.0.113.7") {
		t.Error("burst exhausted, fourth request should be rejected")
	}

	// A different client starts with its own full burst.
	if !rl.Allow("198.51.100.23") {
		t.Error("fresh key should be allowed")
	}
}

func TestWaitPacing(t *testing.T) {
	rl := New(10, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// The burst token is free, the next one arrives ~100ms later at 10 rps.
	if err := rl.Wait(ctx, "203.0.113.7"); err != nil {
		t.Fatalf("burst token: %v", err)
	}

	start := time.Now()
	if err := rl.Wait(ctx, "203.0.113.7"); err != nil {
		t.Fatalf("paced token: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond || elapsed > 200*time.Millisecond {
		t.Errorf("paced token arrived after %v, want about 100ms", elapsed)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	rl := New(0.1, 1)
	defer rl.Stop()

	rl.Allow("203.0.113.7")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx, "203.0.113.7"); err == nil {
		t.Error("Wait should fail once the context deadline passes")
	}
}

func TestEvictIdleResetsBurst(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("203.0.113.7")
	if rl.Allow("203.0.113.7") {
		t.Fatal("burst should be exhausted")
	}

	// A sweep right away finds nothing idle.
	rl.evictIdle(time.Now())
	if rl.Allow("203.0.113.7") {
		t.Error("bucket should survive an early sweep")
	}

	// A sweep past the idle window drops the bucket, so the key starts
	// over with a full burst.
	rl.evictIdle(time.Now().Add(evictAfter + time.Minute))
	if !rl.Allow("203.0.113.7") {
		t.Error("evicted key should start over")
	}
}
