package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	// maxBodyBytes bounds how much of an upstream response is read.
	maxBodyBytes = 10 << 20

	defaultTimeout  = 30 * time.Second
	defaultCacheTTL = 24 * time.Hour
)

// Client executes operations against a keyed open-data API with
// caching, rate limiting, retries, and request deduplication layered
// around each call. Construct with New; a Client is safe for
// concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	operations map[string]Operation

	cache    Cache
	cacheSet bool
	cacheTTL time.Duration

	limitCapacity  int
	limitWindow    time.Duration
	limiterMode    RateLimitMode
	limiterMaxWait time.Duration
	limiter        *RateLimiter

	retry        RetryPolicy
	singleFlight bool
	inflight     *inflightGroup

	httpClient *http.Client
	timeout    time.Duration

	commonParams    map[string]string
	pathFunc        PathFunc
	check           CheckFunc
	defaultLanguage string

	sem       *semaphore.Weighted
	requestID func() string

	metrics *Metrics
	logger  *zap.Logger
}

// New builds a Client for baseURL. An API key and a non-empty
// operation table are required.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		cacheTTL:  defaultCacheTTL,
		retry:     DefaultRetryPolicy(),
		timeout:   defaultTimeout,
		requestID: defaultRequestID,
		logger:    zap.NewNop(),

		singleFlight: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == "" {
		return nil, validationError("new", "base URL is required")
	}
	if c.apiKey == "" {
		return nil, validationError("new", "API key is required")
	}
	if len(c.operations) == 0 {
		return nil, validationError("new", "at least one operation must be registered")
	}
	if c.limitCapacity > 0 {
		if c.limitWindow <= 0 {
			return nil, validationError("new", "rate limit window must be positive")
		}
		c.limiter = NewRateLimiter(c.limitCapacity, c.limitWindow, c.limiterMode, c.limiterMaxWait)
	}

	if !c.cacheSet {
		c.cache = NewMemoryCache(0)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.pathFunc == nil {
		c.pathFunc = func(_, opPath string) string { return opPath }
	}
	c.inflight = newInflightGroup()
	return c, nil
}

// Execute runs the operation named by desc and returns the raw
// response payload. The control flow is fixed: validate, consult the
// cache, join or own the in-flight slot, acquire a rate-limit token,
// run the retry loop around the HTTP call, store the result. Cache
// hits never touch the limiter or the network.
func (c *Client) Execute(ctx context.Context, desc Descriptor) (*Response, error) {
	start := time.Now()

	op, ok := c.operations[desc.Op]
	if !ok {
		return nil, validationError(desc.Op, "unknown operation")
	}
	if err := op.validate(desc.Params); err != nil {
		return nil, err
	}
	if desc.Language == "" {
		desc.Language = c.defaultLanguage
	}
	key := desc.CacheKey()

	if resp := c.cacheGet(ctx, desc.Op, key); resp != nil {
		c.metrics.recordRequest(desc.Op, resp.Status, time.Since(start))
		return resp, nil
	}

	if c.singleFlight {
		call, owner := c.inflight.join(key)
		if !owner {
			c.metrics.recordInflightShared(desc.Op)
			resp, err := call.wait(ctx)
			if err == nil {
				c.metrics.recordRequest(desc.Op, resp.Status, time.Since(start))
			} else {
				var ce *Error
				if errors.As(err, &ce) && ce.Op == "" {
					ce.Op = desc.Op
				}
			}
			return resp, err
		}
		resp, err := c.fetch(ctx, desc, op, key)
		c.inflight.complete(key, call, resp, err)
		if err == nil {
			c.metrics.recordRequest(desc.Op, resp.Status, time.Since(start))
		}
		return resp, err
	}

	resp, err := c.fetch(ctx, desc, op, key)
	if err == nil {
		c.metrics.recordRequest(desc.Op, resp.Status, time.Since(start))
	}
	return resp, err
}

// cacheGet returns a cached response or nil. Cache failures are logged
// and degrade to a miss.
func (c *Client) cacheGet(ctx context.Context, op, key string) *Response {
	if c.cache == nil {
		return nil
	}
	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.metrics.recordCacheError(op)
			c.logger.Warn("cache get failed, treating as miss",
				zap.String("op", op), zap.Error(err))
		}
		c.metrics.recordCacheMiss(op)
		return nil
	}
	c.metrics.recordCacheHit(op)
	return &Response{
		Payload:   entry.Value,
		Status:    entry.Status,
		FetchedAt: entry.StoredAt,
		FromCache: true,
	}
}

// fetch runs the rate limiter, the retry loop around one HTTP
// exchange, and on success stores the payload in the cache.
func (c *Client) fetch(ctx context.Context, desc Descriptor, op Operation, key string) (*Response, error) {
	if c.limiter != nil {
		err := c.limiter.Acquire(ctx)
		c.metrics.recordLimiterTokens(c.baseURL, c.limiter.Tokens())
		if err != nil {
			c.metrics.recordRateLimited(desc.Op)
			var ce *Error
			if errors.As(err, &ce) {
				ce.Op = desc.Op
			}
			return nil, err
		}
	}

	var resp *Response
	attempt := 0
	err := c.retry.Run(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.metrics.recordRetry(desc.Op)
			c.logger.Debug("retrying request",
				zap.String("op", desc.Op), zap.Int("attempt", attempt))
		}
		var err error
		resp, err = c.doRequest(ctx, desc, op)
		return err
	})
	if err != nil {
		c.metrics.recordUpstreamError(desc.Op, IsTransient(err))
		return nil, err
	}

	if c.cache != nil {
		entry := &Entry{
			Value:    resp.Payload,
			Status:   resp.Status,
			StoredAt: resp.FetchedAt,
			TTL:      op.ttl(c.cacheTTL),
		}
		if cerr := c.cache.Set(ctx, key, entry); cerr != nil {
			c.metrics.recordCacheError(desc.Op)
			c.logger.Warn("cache set failed",
				zap.String("op", desc.Op), zap.Error(cerr))
		}
	}
	return resp, nil
}

// doRequest performs one HTTP exchange and classifies the outcome.
func (c *Client) doRequest(ctx context.Context, desc Descriptor, op Operation) (*Response, error) {
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, upstreamError(desc.Op, "waiting for a request slot", 0, false, err)
		}
		defer c.sem.Release(1)
	}

	reqURL := c.buildURL(desc, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, validationError(desc.Op, fmt.Sprintf("building request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", c.requestID())

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, upstreamError(desc.Op, "request cancelled", 0, false, ctx.Err())
		}
		return nil, upstreamError(desc.Op, "request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, upstreamError(desc.Op, "reading response body", httpResp.StatusCode, true, err)
	}

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		e := rateLimitError(desc.Op, parseRetryAfter(httpResp.Header.Get("Retry-After")), nil)
		e.Status = httpResp.StatusCode
		e.Transient = true
		return nil, e
	case httpResp.StatusCode >= 500:
		return nil, upstreamError(desc.Op,
			fmt.Sprintf("server error: %s", httpResp.Status), httpResp.StatusCode, true, nil)
	case httpResp.StatusCode >= 400:
		return nil, upstreamError(desc.Op,
			fmt.Sprintf("client error: %s", httpResp.Status), httpResp.StatusCode, false, nil)
	}

	if c.check != nil {
		if err := c.check(desc.Op, httpResp.StatusCode, body); err != nil {
			return nil, err
		}
	}

	return &Response{
		Payload:   body,
		Status:    httpResp.StatusCode,
		FetchedAt: time.Now(),
	}, nil
}

// buildURL assembles the request URL. The service key is appended
// verbatim ahead of the encoded parameters: data.go.kr keys arrive
// already percent-encoded and double-encoding breaks authentication.
func (c *Client) buildURL(desc Descriptor, op Operation) string {
	path := c.pathFunc(desc.Language, op.Path)

	values := url.Values{}
	for k, v := range c.commonParams {
		values.Set(k, v)
	}
	for k, v := range desc.Params {
		values.Set(k, v)
	}

	var b strings.Builder
	b.WriteString(c.baseURL)
	if !strings.HasPrefix(path, "/") {
		b.WriteByte('/')
	}
	b.WriteString(path)
	b.WriteString("?serviceKey=")
	b.WriteString(c.apiKey)
	if encoded := values.Encode(); encoded != "" {
		b.WriteByte('&')
		b.WriteString(encoded)
	}
	return b.String()
}

// parseRetryAfter reads an HTTP Retry-After header expressed either as
// delay seconds or as an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
