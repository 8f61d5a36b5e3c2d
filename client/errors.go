package client

import (
	"errors"
	"fmt"
	"time"
)

// Kind partitions client failures into the classes callers branch on.
type Kind string

const (
	// KindValidation marks a malformed descriptor. Never retried and
	// never reaches the network.
	KindValidation Kind = "Validation"

	// KindRateLimit marks limiter exhaustion under the fail-fast policy
	// or an elapsed wait timeout.
	KindRateLimit Kind = "RateLimit"

	// KindUpstream wraps a transport or upstream failure, either fatal
	// or the last retryable failure after the retry budget ran out.
	KindUpstream Kind = "Upstream"

	// KindCache marks a cache store failure. The client recovers from
	// these internally; the kind surfaces only in logs and metrics.
	KindCache Kind = "Cache"
)

// ErrCacheMiss is returned by Cache implementations when a key is
// absent or its entry has expired.
var ErrCacheMiss = errors.New("client: cache miss")

// Error is the structured error returned by Execute. Kind determines
// how the caller should react; the remaining fields carry enough
// context to produce an actionable message without string parsing.
type Error struct {
	Kind        Kind
	Op          string
	Message     string
	Status      int           // upstream HTTP status, 0 when not applicable
	RetryAfter  time.Duration // hint for KindRateLimit, 0 when unknown
	Attempt     int           // attempts consumed when the error surfaced
	MaxAttempts int
	Transient   bool // whether a retry could plausibly succeed
	Cause       error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("%s: op=%s", msg, e.Op)
	}
	if e.Status > 0 {
		msg = fmt.Sprintf("%s status=%d", msg, e.Status)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d/%d)", msg, e.Attempt, e.MaxAttempts)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches errors by Kind so callers can test categories with
// errors.Is(err, &client.Error{Kind: client.KindValidation}).
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsTransient reports whether err represents a failure that might
// succeed on retry: network errors, 5xx responses and HTTP 429.
func IsTransient(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Transient
	}
	return false
}

func validationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func rateLimitError(op string, retryAfter time.Duration, cause error) *Error {
	return &Error{
		Kind:       KindRateLimit,
		Op:         op,
		Message:    "rate limit exceeded",
		RetryAfter: retryAfter,
		Cause:      cause,
	}
}

func upstreamError(op, message string, status int, transient bool, cause error) *Error {
	return &Error{
		Kind:      KindUpstream,
		Op:        op,
		Message:   message,
		Status:    status,
		Transient: transient,
		Cause:     cause,
	}
}
