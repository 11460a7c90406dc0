package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RateRequestsTotal    prometheus.Counter
	RefreshRequestsTotal prometheus.Counter
	HistoryRequestsTotal prometheus.Counter
	StoreRequestsTotal   *prometheus.CounterVec

	CacheLookupsTotal    *prometheus.CounterVec
	UpstreamFetchesTotal *prometheus.CounterVec
	StaleResponsesTotal  prometheus.Counter
	StoreUpsertsTotal    *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg uses the default
// Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		RateRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_requests_total",
				Help: "Total number of exchange rate requests",
			},
		),

		RefreshRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "refresh_requests_total",
				Help: "Total number of forced rate refresh requests",
			},
		),

		HistoryRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "history_requests_total",
				Help: "Total number of rate history range requests",
			},
		),

		StoreRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_store_requests_total",
				Help: "Total number of direct rate store requests",
			},
			[]string{"method"},
		),

		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_cache_lookups_total",
				Help: "Rate cache lookups for today's snapshot",
			},
			[]string{"result"},
		),

		UpstreamFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_fetches_total",
				Help: "Upstream rate provider fetches by outcome",
			},
			[]string{"outcome"},
		),

		StaleResponsesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stale_responses_total",
				Help: "Responses served from a stale cache after an upstream failure",
			},
		),

		StoreUpsertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_store_upserts_total",
				Help: "Per-pair upserts issued by write-through refreshes",
			},
			[]string{"result"},
		),
	}
}
