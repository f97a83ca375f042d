package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeatherMap API call rate. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// External API latency per request. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Total weather lookups. rate() for QPS.
	WeatherQueriesTotal prometheus.Counter

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Dataset uploads by outcome (success/error). Error ratio flags bad inputs.
	DatasetUploadsTotal *prometheus.CounterVec

	// Row count per loaded dataset. Watch for: unusually large uploads.
	DatasetRowsLoaded prometheus.Histogram

	// Analysis executions by kind and outcome.
	AnalysisRunsTotal *prometheus.CounterVec

	// Analysis latency by kind. Correlation dominates on wide tables.
	AnalysisDuration *prometheus.HistogramVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherQueriesTotal",
			Help: "Total number of weather lookups",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by the rate limiter",
		},
	)
	DatasetUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasetUploadsTotal",
			Help: "Total number of dataset uploads by outcome",
		},
		[]string{"status"},
	)
	DatasetRowsLoaded = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datasetRowsLoaded",
			Help:    "Row count of each successfully loaded dataset",
			Buckets: []float64{10, 100, 1000, 10000, 100000, 1000000},
		},
	)
	AnalysisRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysisRunsTotal",
			Help: "Total number of analysis executions by kind and outcome",
		},
		[]string{"kind", "status"},
	)
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysisDurationSeconds",
			Help:    "Analysis execution latency in seconds by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		WeatherAPICallsTotal,
		WeatherAPIDuration,
		WeatherQueriesTotal,
		RateLimitDeniedTotal,
		DatasetUploadsTotal,
		DatasetRowsLoaded,
		AnalysisRunsTotal,
		AnalysisDuration,
	)
}

// MetricsHandler returns the /metrics handler backed by the private registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
