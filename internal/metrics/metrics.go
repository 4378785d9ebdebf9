package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	ChecksTotal     *prometheus.CounterVec
	AdsChecked      prometheus.Counter
	AdsPaused       prometheus.Counter
	PlatformRetries prometheus.Counter
	CheckDuration   prometheus.Histogram
	JobsActive      prometheus.Gauge
}

// New registers all collectors with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "adwatch_checks_total",
			Help: "Check runs by outcome.",
		}, []string{"outcome"}),
		AdsChecked: factory.NewCounter(prometheus.CounterOpts{
			Name: "adwatch_ads_checked_total",
			Help: "Ads evaluated across all checks.",
		}),
		AdsPaused: factory.NewCounter(prometheus.CounterOpts{
			Name: "adwatch_ads_paused_total",
			Help: "Ads paused for failing their policy.",
		}),
		PlatformRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "adwatch_platform_retries_total",
			Help: "Ad platform calls that were retried.",
		}),
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "adwatch_check_duration_seconds",
			Help:    "Wall time of one campaign check.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		JobsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "adwatch_jobs_active",
			Help: "Asynchronous check jobs currently tracked and not finished.",
		}),
	}
}
