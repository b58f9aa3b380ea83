package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	reportsBuilt     prometheus.Counter
	reportRows       prometheus.Histogram
	assemblyDuration prometheus.Histogram
	referentialGaps  prometheus.Counter
	staleDiscards    prometheus.Counter
}

// NewMetrics initialises the registry and the base instruments.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerscope_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledgerscope_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	reportsBuilt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerscope_reports_built_total",
		Help: "Ledger reports assembled and committed.",
	})
	reportRows := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledgerscope_report_rows",
		Help:    "Row count of committed ledger reports.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	assemblyDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledgerscope_report_assembly_duration_seconds",
		Help:    "End-to-end duration of report refreshes.",
		Buckets: prometheus.DefBuckets,
	})
	referentialGaps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerscope_referential_gaps_dropped_total",
		Help: "Posting lines dropped because their header was missing.",
	})
	staleDiscards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerscope_stale_responses_discarded_total",
		Help: "Fetch results discarded because the selection changed.",
	})
	registry.MustRegister(requests, duration, reportsBuilt, reportRows, assemblyDuration, referentialGaps, staleDiscards)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		reportsBuilt:     reportsBuilt,
		reportRows:       reportRows,
		assemblyDuration: assemblyDuration,
		referentialGaps:  referentialGaps,
		staleDiscards:    staleDiscards,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ReportBuilt records a committed report refresh.
func (m *Metrics) ReportBuilt(rows int, took time.Duration) {
	if m == nil {
		return
	}
	m.reportsBuilt.Inc()
	m.reportRows.Observe(float64(rows))
	m.assemblyDuration.Observe(took.Seconds())
}

// ReferentialGapDropped records a posting line dropped for a missing header.
func (m *Metrics) ReferentialGapDropped() {
	if m == nil {
		return
	}
	m.referentialGaps.Inc()
}

// StaleResponseDiscarded records a fetch result discarded as stale.
func (m *Metrics) StaleResponseDiscarded() {
	if m == nil {
		return
	}
	m.staleDiscards.Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
