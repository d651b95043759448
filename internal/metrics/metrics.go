package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runsafe_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "runsafe_http_request_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runsafe_remote_calls_total",
			Help: "Total calls to the deployed conditions and pulse endpoints",
		},
		[]string{"endpoint", "status"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runsafe_fallbacks_total",
			Help: "Times a local fallback payload replaced a remote one",
		},
		[]string{"endpoint"},
	)

	ReadinessScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "runsafe_readiness_score",
			Help:    "Distribution of readiness check scores",
			Buckets: []float64{25, 45, 65, 85, 100},
		},
	)

	NightCrewSignups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runsafe_nightcrew_signups_total",
			Help: "Night Crew signups by outcome",
		},
		[]string{"outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runsafe_cache_lookups_total",
			Help: "Snapshot cache lookups by key kind and result",
		},
		[]string{"kind", "result"},
	)

	NightCrewMembers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "runsafe_nightcrew_members",
			Help: "Night Crew members stored",
		},
	)

	ReadinessDaily = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "runsafe_readiness_daily",
			Help: "Readiness submissions over the last day: count and average score",
		},
		[]string{"stat"},
	)
)
