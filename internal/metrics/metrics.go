// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chatbot outcomes recorded by ChatbotRequestsTotal.
const (
	OutcomeOK         = "ok"
	OutcomeFallback   = "fallback"
	OutcomeDegraded   = "degraded"
	OutcomeInvalid    = "invalid"
	OutcomeNoProvider = "no_provider"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shadicards",
			Subsystem: "concierge",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shadicards",
			Subsystem: "concierge",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	ChatbotRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shadicards",
			Subsystem: "concierge",
			Name:      "chatbot_requests_total",
			Help:      "Chatbot requests by outcome",
		},
		[]string{"outcome"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shadicards",
			Subsystem: "concierge",
			Name:      "llm_duration_seconds",
			Help:      "Latency of chat-completion calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"mode", "status"},
	)

	StepFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shadicards",
			Subsystem: "concierge",
			Name:      "pipeline_step_failures_total",
			Help:      "Best-effort pipeline steps that failed and were absorbed",
		},
		[]string{"step"},
	)

	RetentionDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shadicards",
			Subsystem: "concierge",
			Name:      "retention_sessions_deleted_total",
			Help:      "Chat sessions removed by the retention sweeper",
		},
	)
)

// Instrument records request counts and latency per chi route pattern.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveLLM records one chat-completion call.
func ObserveLLM(mode string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LLMDuration.WithLabelValues(mode, status).Observe(time.Since(start).Seconds())
}
