package client

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Option configures a Client during New.
type Option func(*Client)

// CheckFunc inspects a decoded upstream body and reports whether the
// provider signalled success inside its own envelope. A returned error
// is fatal: it is not retried and the response is never cached.
type CheckFunc func(op string, status int, body []byte) error

// PathFunc resolves the request path for an operation, given the
// normalized language. The returned path is joined to the base URL.
type PathFunc func(language, opPath string) string

// WithAPIKey sets the provider service key. The key is appended to the
// query string exactly as given, without further URL encoding, because
// data.go.kr issues keys that are already percent-encoded.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithOperations registers the operation table the client will accept.
// Executing a Descriptor whose Op is not in the table fails validation.
func WithOperations(ops map[string]Operation) Option {
	return func(c *Client) { c.operations = ops }
}

// WithCache replaces the default in-memory cache. Passing nil disables
// caching entirely.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheSet = true
	}
}

// WithCacheTTL sets the fallback TTL used for operations that do not
// declare their own.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

// WithRateLimit installs a token-bucket limiter allowing capacity
// requests per window.
func WithRateLimit(capacity int, window time.Duration) Option {
	return func(c *Client) {
		c.limitCapacity = capacity
		c.limitWindow = window
	}
}

// WithRateLimitMode selects between blocking until a token is free and
// rejecting immediately. The default blocks.
func WithRateLimitMode(mode RateLimitMode) Option {
	return func(c *Client) { c.limiterMode = mode }
}

// WithRateLimitMaxWait bounds how long a blocked request may wait for a
// token before failing. Zero means wait as long as the context allows.
func WithRateLimitMaxWait(d time.Duration) Option {
	return func(c *Client) { c.limiterMaxWait = d }
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithSingleFlight toggles request deduplication. Enabled by default:
// concurrent Executes with an identical cache key share one upstream
// call.
func WithSingleFlight(enabled bool) Option {
	return func(c *Client) { c.singleFlight = enabled }
}

// WithMetrics attaches Prometheus collectors. Nil disables recording.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger attaches a structured logger. The default is zap.NewNop.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout on the underlying HTTP
// client. Ignored when WithHTTPClient supplies a custom client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithCommonParams sets query parameters appended to every request,
// such as MobileOS and the response type.
func WithCommonParams(params map[string]string) Option {
	return func(c *Client) { c.commonParams = params }
}

// WithPathFunc installs a language-aware path resolver. The default
// uses the operation path unchanged.
func WithPathFunc(fn PathFunc) Option {
	return func(c *Client) { c.pathFunc = fn }
}

// WithCheckResponse installs an envelope success check run on every
// 2xx body before it is cached or returned.
func WithCheckResponse(fn CheckFunc) Option {
	return func(c *Client) { c.check = fn }
}

// WithDefaultLanguage sets the language used when a Descriptor leaves
// Language empty.
func WithDefaultLanguage(lang string) Option {
	return func(c *Client) { c.defaultLanguage = lang }
}

// WithConcurrencyLimit caps how many HTTP calls may run at once. Zero
// or negative leaves concurrency unbounded.
func WithConcurrencyLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRequestIDFunc overrides how per-request IDs are generated. The
// default uses random UUIDs.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

func defaultRequestID() string {
	return uuid.NewString()
}
