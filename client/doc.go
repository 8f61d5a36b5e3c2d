// Package client provides a resilient access layer for the Korean
// open-data REST APIs, composing the reliability primitives every
// upstream call needs:
//
//   - Typed request descriptors validated against per-operation schemas
//   - Response caching with TTL expiry and deterministic cache keys
//   - Token-bucket rate limiting (blocking with timeout, or fail-fast)
//   - Bounded retries with exponential backoff + jitter
//   - Single-flight collapsing of identical in-flight requests
//   - Prometheus metrics and structured zap logging
//
// A Client owns no global state: construct one instance per upstream
// service/credential and share it freely between goroutines.
//
// Typical usage:
//
//	c, err := client.New("http://apis.data.go.kr/B551011",
//	    client.WithAPIKey(key),
//	    client.WithOperations(ops),
//	    client.WithCache(client.NewMemoryCache(1000)),
//	    client.WithCacheTTL(24*time.Hour),
//	    client.WithRateLimit(5, time.Second),
//	)
//	resp, err := c.Execute(ctx, client.Descriptor{
//	    Op:     "searchKeyword2",
//	    Params: map[string]string{"keyword": "Gyeongbokgung"},
//	})
//
// Control flow of Execute is fixed and auditable: validate, consult the
// cache, acquire a rate-limit slot, run the retry executor around the
// HTTP call, store the result. Cache hits never touch the limiter or
// the network.
package client
