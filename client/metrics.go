package client

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes Prometheus collectors for the request lifecycle and
// the reliability layers. Safe for concurrent use.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheErrors *prometheus.CounterVec

	retriesTotal   *prometheus.CounterVec
	rateLimited    *prometheus.CounterVec
	inflightShared *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
	limiterTokens  *prometheus.GaugeVec
}

// NewMetrics registers the client collectors with reg. namespace
// distinguishes several client instances sharing one registry (e.g.
// "tourism" and "weather").
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_requests_total",
			Help:      "Total requests executed, by operation and HTTP status.",
		}, []string{"op", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "client_request_duration_seconds",
			Help:      "End-to-end request duration, cache hits included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_cache_hits_total",
			Help:      "Cache hits, by operation.",
		}, []string{"op"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_cache_misses_total",
			Help:      "Cache misses, by operation.",
		}, []string{"op"}),
		cacheErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_cache_errors_total",
			Help:      "Cache store failures degraded to misses.",
		}, []string{"op"}),
		retriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_retries_total",
			Help:      "Retry attempts beyond the first, by operation.",
		}, []string{"op"}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_rate_limited_total",
			Help:      "Requests denied or timed out at the rate limiter.",
		}, []string{"op"}),
		inflightShared: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_inflight_shared_total",
			Help:      "Calls that joined an identical in-flight request.",
		}, []string{"op"}),
		upstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_upstream_errors_total",
			Help:      "Terminal upstream failures, by operation and class.",
		}, []string{"op", "transient"}),
		limiterTokens: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "client_rate_limiter_tokens",
			Help:      "Tokens remaining in the rate-limit bucket.",
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) recordRequest(op string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) recordCacheHit(op string) {
	if m != nil {
		m.cacheHits.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) recordCacheMiss(op string) {
	if m != nil {
		m.cacheMisses.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) recordCacheError(op string) {
	if m != nil {
		m.cacheErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) recordRetry(op string) {
	if m != nil {
		m.retriesTotal.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) recordRateLimited(op string) {
	if m != nil {
		m.rateLimited.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) recordInflightShared(op string) {
	if m != nil {
		m.inflightShared.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) recordUpstreamError(op string, transient bool) {
	if m != nil {
		m.upstreamErrors.WithLabelValues(op, strconv.FormatBool(transient)).Inc()
	}
}

func (m *Metrics) recordLimiterTokens(endpoint string, tokens float64) {
	if m != nil {
		m.limiterTokens.WithLabelValues(endpoint).Set(tokens)
	}
}
