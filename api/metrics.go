package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// Metrics holds the server's Prometheus collectors. Each server owns its
// registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	evaluations  *prometheus.CounterVec
	dcfErrors    prometheus.Counter
	fetchWarning *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockvalue_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockvalue_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockvalue_evaluations_total",
				Help: "Completed evaluations by recommendation label and strategy",
			},
			[]string{"label", "strategy"},
		),
		dcfErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockvalue_dcf_errors_total",
			Help: "Evaluations whose DCF fair value could not be computed",
		}),
		fetchWarning: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockvalue_fetch_warnings_total",
				Help: "Market-data fetch legs that failed",
			},
			[]string{"leg"},
		),
	}
	m.registry.MustRegister(
		m.requests, m.duration, m.evaluations, m.dcfErrors, m.fetchWarning,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordEvaluation counts a finished evaluation.
func (m *Metrics) RecordEvaluation(r models.ValuationReport) {
	m.evaluations.WithLabelValues(string(r.Recommendation.Label), r.Recommendation.Strategy).Inc()
	if r.DCFError != "" {
		m.dcfErrors.Inc()
	}
}

// RecordWarnings counts failed fetch legs. Warnings read "leg: reason".
func (m *Metrics) RecordWarnings(warnings []string) {
	for _, w := range warnings {
		leg, _, _ := strings.Cut(w, ":")
		m.fetchWarning.WithLabelValues(leg).Inc()
	}
}

// instrument records request metrics and writes one structured log line
// per request. The route label is chi's route pattern to keep cardinality
// low.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routeLabel(r)
		elapsed := time.Since(start)

		s.metrics.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		s.metrics.duration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())

		ev := s.log.Info()
		if status >= 500 {
			ev = s.log.Error()
		}
		ev.Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", elapsed).
			Int("bytes", ww.BytesWritten()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
