package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute, Reject, 0)

	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d denied within capacity", i+1)
		}
	}
	if rl.Allow() {
		t.Error("request allowed beyond capacity")
	}
}

func TestRateLimiterRejectMode(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, Reject, 0)
	ctx := context.Background()

	if err := rl.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	err := rl.Acquire(ctx)
	if err == nil {
		t.Fatal("second acquire succeeded with an empty bucket")
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != KindRateLimit {
		t.Errorf("want KindRateLimit, got %v", err)
	}
	if ce.RetryAfter <= 0 {
		t.Error("rejection carries no retry-after hint")
	}
}

func TestRateLimiterBlockMode(t *testing.T) {
	// 50 tokens/sec: an empty bucket refills in ~20ms.
	rl := NewRateLimiter(50, time.Second, Block, 0)
	for i := 0; i < 50; i++ {
		rl.Allow()
	}

	start := time.Now()
	if err := rl.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("blocked acquire returned after %v, expected a wait", elapsed)
	}
}

func TestRateLimiterMaxWait(t *testing.T) {
	// One token per minute: the next token is far beyond maxWait.
	rl := NewRateLimiter(1, time.Minute, Block, 10*time.Millisecond)
	rl.Allow()

	err := rl.Acquire(context.Background())
	if err == nil {
		t.Fatal("acquire succeeded past the wait budget")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("want a deadline cause, got %v", err)
	}
}

func TestRateLimiterContextCancel(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour, Block, 0)
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := rl.Acquire(ctx)
	if err == nil {
		t.Fatal("acquire succeeded after context expiry")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("want the context error as cause, got %v", err)
	}
}

// The bucket refills from elapsed wall-clock time and never overshoots
// capacity, however long the limiter sits idle.
func TestRateLimiterRefillCapped(t *testing.T) {
	rl := NewRateLimiter(3, 30*time.Millisecond, Reject, 0)
	for i := 0; i < 3; i++ {
		rl.Allow()
	}

	time.Sleep(200 * time.Millisecond)

	if got := rl.Tokens(); got > 3 {
		t.Errorf("tokens=%v exceeds capacity 3", got)
	}
	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d denied after full refill", i+1)
		}
	}
	if rl.Allow() {
		t.Error("refill exceeded capacity")
	}
}
