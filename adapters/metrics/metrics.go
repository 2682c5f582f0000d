// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the lookup service.
type Collector struct {
	// Lookup metrics
	LookupsTotal   *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec

	// Quota metrics
	MeteredCalls   prometheus.Counter
	QuotaRemaining prometheus.Gauge
	QuotaDenials   prometheus.Counter
	LedgerErrors   prometheus.Counter

	// Upstream metrics
	UpstreamDuration *prometheus.HistogramVec
	UpstreamErrors   *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered on reg. Tests use a
// fresh registry to avoid duplicate-registration panics.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "brandfetch",
				Name:      "lookups_total",
				Help:      "Total lookups by outcome and serving source",
			},
			[]string{"outcome", "source"},
		),
		LookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "brandfetch",
				Name:      "lookup_duration_seconds",
				Help:      "End-to-end lookup duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),

		MeteredCalls: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "brandfetch",
				Name:      "metered_calls_total",
				Help:      "Brand API calls consumed against the monthly quota",
			},
		),
		QuotaRemaining: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "brandfetch",
				Name:      "quota_remaining",
				Help:      "Remaining metered calls in the current period",
			},
		),
		QuotaDenials: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "brandfetch",
				Name:      "quota_denials_total",
				Help:      "Requests denied because the monthly quota was spent",
			},
		),
		LedgerErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "brandfetch",
				Name:      "ledger_errors_total",
				Help:      "Usage ledger failures (each one fails a request closed)",
			},
		),

		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "brandfetch",
				Name:      "upstream_duration_seconds",
				Help:      "Upstream call duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "brandfetch",
				Name:      "upstream_errors_total",
				Help:      "Upstream failures by endpoint and kind",
			},
			[]string{"endpoint", "kind"},
		),

		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "brandfetch",
				Name:      "cache_hits_total",
				Help:      "Lookups served from cache",
			},
		),
		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "brandfetch",
				Name:      "cache_misses_total",
				Help:      "Lookups that missed the cache",
			},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "brandfetch",
				Name:      "config_reloads_total",
				Help:      "Successful configuration reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "brandfetch",
				Name:      "config_reload_errors_total",
				Help:      "Failed configuration reloads",
			},
		),
	}
}
