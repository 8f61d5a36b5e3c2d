package client

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryPolicy bounds how often and how eagerly a failed upstream call
// is reattempted. Static configuration, never mutated at runtime.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt; subsequent
	// delays grow by Multiplier.
	BaseDelay time.Duration

	// MaxDelay caps any single backoff delay.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor between delays.
	Multiplier float64

	// Jitter in [0,1] randomly extends each delay by up to that
	// fraction, de-synchronizing concurrent retry storms.
	Jitter float64
}

// DefaultRetryPolicy mirrors the upstream services' tolerance for
// transient faults: three attempts spaced 1s, 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.1,
	}
}

// Run invokes op until it succeeds, fails fatally, or MaxAttempts is
// exhausted. Transient failures (per IsTransient) are retried after an
// exponential backoff; fatal failures short-circuit immediately. The
// last observed error is returned verbatim, annotated with the attempt
// count when it is a *Error. Backoff sleeps abort on ctx cancellation.
func (p RetryPolicy) Run(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := p.backoff(attempt)
			if ra := retryAfterHint(last); ra > delay {
				delay = ra
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return last
			case <-timer.C:
			}
		}

		last = op(ctx)
		if last == nil {
			return nil
		}
		if !IsTransient(last) {
			return annotateAttempts(last, attempt, attempts)
		}
		if ctx.Err() != nil {
			return annotateAttempts(last, attempt, attempts)
		}
	}
	return annotateAttempts(last, attempts, attempts)
}

// backoff computes the delay before attempt n (n >= 2):
// BaseDelay * Multiplier^(n-2), jittered, capped at MaxDelay.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	exp := attempt - 2
	if exp < 0 {
		exp = 0
	}
	if exp > 30 {
		exp = 30
	}

	factor := 1.0
	for i := 0; i < exp; i++ {
		factor *= p.Multiplier
	}
	delay := time.Duration(float64(p.BaseDelay) * factor)
	if p.MaxDelay > 0 && (delay > p.MaxDelay || delay < 0) {
		delay = p.MaxDelay
	}

	jitter := p.Jitter
	if jitter < 0 {
		jitter = 0
	}
	if jitter > 1 {
		jitter = 1
	}
	if jitter > 0 {
		delay += time.Duration(float64(delay) * jitter * rand.Float64())
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return delay
}

func retryAfterHint(err error) time.Duration {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.RetryAfter
	}
	return 0
}

func annotateAttempts(err error, attempt, max int) error {
	var ce *Error
	if errors.As(err, &ce) {
		ce.Attempt = attempt
		ce.MaxAttempts = max
	}
	return err
}
