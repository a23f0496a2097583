package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	ErrorTotal      *prometheus.CounterVec

	// Hospital engine metrics
	HospitalPredictions *prometheus.CounterVec
	HospitalFallbacks   prometheus.Counter
	SessionUpdates      prometheus.Counter

	// Forecast metrics
	ForecastFetchLatency prometheus.Histogram
	ForecastFetchFailed  *prometheus.CounterVec
	ForecastCacheHits    prometheus.Counter

	// Accident metrics
	AccidentAssessments *prometheus.CounterVec

	// Broker metrics
	EventsPublished prometheus.Counter
	EventsFailed    prometheus.Counter
}

// NewMetrics creates all application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "status"}),
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		ErrorTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of HTTP errors",
		}, []string{"method", "path", "type"}),

		HospitalPredictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hospital",
			Name:      "predictions_total",
			Help:      "Total number of hospital predictions by mode",
		}, []string{"mode"}),
		HospitalFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hospital",
			Name:      "ml_fallbacks_total",
			Help:      "Total number of ML predictions that degraded to the rule path",
		}),
		SessionUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hospital",
			Name:      "session_updates_total",
			Help:      "Total number of writes to the last-prediction slot",
		}),

		ForecastFetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching the upstream forecast",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5},
		}),
		ForecastFetchFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "fetch_failures_total",
			Help:      "Total number of failed forecast fetches",
		}, []string{"reason"}),
		ForecastCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "cache_hits_total",
			Help:      "Total number of forecast fetches served from cache",
		}),

		AccidentAssessments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accident",
			Name:      "assessments_total",
			Help:      "Total number of accident risk assessments by tier",
		}, []string{"tier"}),

		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "events_published_total",
			Help:      "Total number of ingest events published",
		}),
		EventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "events_failed_total",
			Help:      "Total number of ingest events that failed to publish",
		}),
	}
}

// NewNop returns metrics registered against a throwaway registry, for tests
// and tools that do not expose /metrics.
func NewNop() *Metrics {
	return NewMetrics(prometheus.NewRegistry(), "riskcast")
}
