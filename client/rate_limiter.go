package client

import (
	"context"
	"sync"
	"time"
)

// RateLimitMode selects what Acquire does when no token is available.
type RateLimitMode int

const (
	// Block suspends the caller until a token becomes available or the
	// configured MaxWait elapses.
	Block RateLimitMode = iota

	// Reject fails immediately with a KindRateLimit error.
	Reject
)

// RateLimiter is a continuous token bucket: tokens accumulate at
// capacity/window regardless of call timing, capped at capacity.
// All state changes happen under the mutex, so concurrent acquirers
// can never be granted more than capacity tokens per window.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	ratePerSec float64
	lastRefill time.Time

	mode    RateLimitMode
	maxWait time.Duration
}

// NewRateLimiter creates a limiter allowing capacity acquisitions per
// window. mode selects blocking or fail-fast behavior; maxWait bounds
// a blocking wait (0 means wait indefinitely, subject to ctx).
func NewRateLimiter(capacity int, window time.Duration, mode RateLimitMode, maxWait time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     float64(capacity),
		capacity:   float64(capacity),
		ratePerSec: float64(capacity) / window.Seconds(),
		lastRefill: time.Now(),
		mode:       mode,
		maxWait:    maxWait,
	}
}

// refillLocked credits tokens for the wall-clock time elapsed since
// the last refill. Callers must hold mu.
func (rl *RateLimiter) refillLocked(now time.Time) {
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	rl.tokens += elapsed * rl.ratePerSec
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.lastRefill = now
}

// Allow consumes a token without blocking, reporting whether one was
// available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked(time.Now())
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// Acquire obtains a permit according to the limiter's mode. In Block
// mode it suspends until a token is available, ctx is done, or MaxWait
// elapses; in Reject mode it fails immediately when the bucket is
// empty. The returned error carries a retry-after hint.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	start := time.Now()
	for {
		rl.mu.Lock()
		now := time.Now()
		rl.refillLocked(now)
		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - rl.tokens) / rl.ratePerSec * float64(time.Second))
		rl.mu.Unlock()

		if rl.mode == Reject {
			return rateLimitError("", wait, nil)
		}
		if rl.maxWait > 0 && time.Since(start)+wait > rl.maxWait {
			return rateLimitError("", wait, context.DeadlineExceeded)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return rateLimitError("", wait, ctx.Err())
		case <-timer.C:
			// Loop: another caller may have taken the refilled token.
		}
	}
}

// Tokens reports the currently available token count after refill.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked(time.Now())
	return rl.tokens
}
