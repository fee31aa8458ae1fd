package providers

import (
	"clanwatch/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncUpstreamRequests(endpoint string, status int)
	ObserveRateLimitWait(duration time.Duration)
	ObserveIngestDuration(duration time.Duration, success bool)
	ObservePersistenceDuration(duration time.Duration)
	SetSnapshotSize(members, logs int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	upstreamRequests    *prometheus.CounterVec
	rateLimitWait       prometheus.Histogram
	ingestDuration      *prometheus.HistogramVec
	persistenceDuration prometheus.Histogram
	members             prometheus.Gauge
	logs                prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncUpstreamRequests(endpoint string, status int) {
	m.upstreamRequests.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRateLimitWait(duration time.Duration) {
	m.rateLimitWait.Observe(duration.Seconds())
}

func (m *MetricsProvider) ObserveIngestDuration(duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.ingestDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetSnapshotSize(members, logs int) {
	m.members.Set(float64(members))
	m.logs.Set(float64(logs))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clanwatch_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clanwatch_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clanwatch_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clanwatch_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		upstreamRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clanwatch_upstream_requests_total",
			Help: "Total number of requests sent to the game API",
		}, []string{"endpoint", "status"}),

		rateLimitWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clanwatch_rate_limit_wait_seconds",
			Help:    "Time spent waiting for the rate limiter before an upstream request",
			Buckets: []float64{0.1, 0.5, 1, 2, 4, 8},
		}),

		ingestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clanwatch_ingest_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
		}, []string{"result"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clanwatch_persistence_duration_seconds",
			Help:    "Duration of snapshot writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		members: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "clanwatch_members_total",
			Help: "Number of roster members in the loaded snapshot",
		}),

		logs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "clanwatch_logs_total",
			Help: "Number of log entries in the loaded snapshot",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncUpstreamRequests(_ string, _ int)              {}
func (n *noopMetrics) ObserveRateLimitWait(_ time.Duration)             {}
func (n *noopMetrics) ObserveIngestDuration(_ time.Duration, _ bool)    {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) SetSnapshotSize(_, _ int)                         {}
