// Package metrics provides Prometheus instrumentation for the assessment pipelines.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "walletroast"

var (
	// HTTPRequestsTotal counts HTTP requests by method, route, and status bucket.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route template, and status code.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// PipelineRunsTotal counts pipeline executions by use case and outcome kind.
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline executions by use case and outcome (ok or error kind).",
		},
		[]string{"pipeline", "outcome"},
	)

	// StageDuration observes how long each pipeline stage takes.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"pipeline", "stage"},
	)

	// StagesDegradedTotal counts optional stages that failed and degraded.
	StagesDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_stages_degraded_total",
			Help:      "Optional pipeline stages that failed and were replaced by an unavailable marker.",
		},
		[]string{"pipeline", "stage"},
	)

	// ProviderCallsTotal counts external provider calls by provider, method, and result.
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "External provider calls by provider, method, and result.",
		},
		[]string{"provider", "method", "result"},
	)

	// ProviderCallDuration observes external provider latency.
	ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "External provider call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "method"},
	)

	// VerdictsTotal counts deterministic verdicts issued.
	VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Token verdicts issued by pipeline and verdict.",
		},
		[]string{"pipeline", "verdict"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PipelineRunsTotal,
		StageDuration,
		StagesDegradedTotal,
		ProviderCallsTotal,
		ProviderCallDuration,
		VerdictsTotal,
	)
}

// ObserveProviderCall records one external call. err nil counts as "ok".
func ObserveProviderCall(provider, method string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ProviderCallsTotal.WithLabelValues(provider, method, result).Inc()
	ProviderCallDuration.WithLabelValues(provider, method).Observe(time.Since(start).Seconds())
}

// Middleware records request metrics using the mux route template as label.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(r.Method, route))

		next.ServeHTTP(rec, r)

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(r.Method, route, statusBucket(rec.status)).Inc()
	})
}

// Handler returns the Prometheus metrics HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	if code < 100 || code > 599 {
		return strconv.Itoa(code)
	}
	return strconv.Itoa(code/100) + "xx"
}
