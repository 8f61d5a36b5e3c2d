package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		Multiplier:  2.0,
		Jitter:      0,
	}
}

func TestRetryExhaustsTransient(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Run(context.Background(), func(context.Context) error {
		calls++
		return upstreamError("op", "boom", 503, true, nil)
	})

	if calls != 3 {
		t.Errorf("calls=%d, want 3", calls)
	}
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if ce.Attempt != 3 || ce.MaxAttempts != 3 {
		t.Errorf("attempt annotation = %d/%d, want 3/3", ce.Attempt, ce.MaxAttempts)
	}
}

func TestRetryFatalShortCircuits(t *testing.T) {
	calls := 0
	fatal := upstreamError("op", "not found", 404, false, nil)
	err := fastPolicy(5).Run(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})

	if calls != 1 {
		t.Errorf("calls=%d, want 1: fatal errors must not be retried", calls)
	}
	if !errors.Is(err, fatal) {
		t.Errorf("last error not returned verbatim: %v", err)
	}
}

func TestRetrySucceedsMidway(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Run(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return upstreamError("op", "flaky", 502, true, nil)
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls=%d, want 3", calls)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Run(context.Background(), func(context.Context) error {
		calls++
		return upstreamError("op", "boom", 500+calls, true, nil)
	})

	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if ce.Status != 503 {
		t.Errorf("status=%d, want the final attempt's 503", ce.Status)
	}
}

func TestRetryBackoffGrows(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    time.Minute,
		Multiplier:  2.0,
		Jitter:      0,
	}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	for i, attempt := range []int{2, 3, 4} {
		if got := p.backoff(attempt); got != want[i] {
			t.Errorf("backoff(%d)=%v, want %v", attempt, got, want[i])
		}
	}
}

func TestRetryBackoffCapped(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		MaxDelay:    3 * time.Second,
		Multiplier:  10.0,
		Jitter:      0.5,
	}
	for attempt := 2; attempt <= 10; attempt++ {
		if got := p.backoff(attempt); got > p.MaxDelay {
			t.Errorf("backoff(%d)=%v exceeds cap %v", attempt, got, p.MaxDelay)
		}
	}
}

func TestRetryHonorsRetryAfterHint(t *testing.T) {
	p := fastPolicy(2)
	calls := 0
	start := time.Now()
	_ = p.Run(context.Background(), func(context.Context) error {
		calls++
		e := rateLimitError("op", 30*time.Millisecond, nil)
		e.Transient = true
		return e
	})

	if calls != 2 {
		t.Fatalf("calls=%d, want 2", calls)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("retried after %v, expected the 30ms Retry-After hint to win", elapsed)
	}
}

func TestRetryContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour, Multiplier: 2.0}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(context.Context) error {
			calls++
			return upstreamError("op", "boom", 503, true, nil)
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if calls != 1 {
			t.Errorf("calls=%d, want 1", calls)
		}
		if err == nil {
			t.Error("Run returned nil after cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not abort the backoff sleep on cancellation")
	}
}
