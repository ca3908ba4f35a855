// Package ratelimit provides a keyed token bucket limiter. The API layer
// keys it by client IP, so idle keys are evicted to keep the map bounded.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// evictAfter is how long a key may sit idle before its bucket is dropped.
// A dropped key simply starts over with a full burst on its next request.
const evictAfter = 3 * time.Minute

// KeyedRateLimiter hands out an independent token bucket per key. All
// methods are safe for concurrent use.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int

	done     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing rps requests per second per key, with
// bursts up to burst. Call Stop to release the eviction goroutine.
func New(rps float64, burst int) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}

	go krl.evictLoop()

	return krl
}

// Allow reports whether the key may proceed right now, consuming a token
// when it may. It never blocks; inbound request protection uses this.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.bucketFor(key).Allow()
}

// Wait blocks until the key may proceed or ctx is done. Outbound calls
// that should pace themselves rather than fail use this.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.bucketFor(key).Wait(ctx)
}

// bucketFor returns the bucket for key, creating it on first sight and
// marking it live for the evictor. Every hit writes lastSeen, so a plain
// mutex serves as well as a read-write one would.
func (krl *KeyedRateLimiter) bucketFor(key string) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	b, ok := krl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// Stop ends the eviction goroutine. Safe to call more than once.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

// evictLoop sweeps idle buckets once a minute until Stop.
func (krl *KeyedRateLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.evictIdle(time.Now())
		}
	}
}

// evictIdle drops buckets whose last request was before now-evictAfter.
func (krl *KeyedRateLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-evictAfter)

	krl.mu.Lock()
	defer krl.mu.Unlock()
	for key, b := range krl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(krl.buckets, key)
		}
	}
}
