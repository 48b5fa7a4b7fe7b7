package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application. It doubles as
// the observer wired into the snapshot store, the cache and the
// navigation router.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pageRenders     *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	cacheOps        *prometheus.CounterVec
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseboard_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulseboard_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	renders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseboard_page_renders_total",
		Help: "Completed dashboard navigations by view and report.",
	}, []string{"view", "report"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseboard_snapshot_fallbacks_total",
		Help: "Report loads served from an older week than requested.",
	}, []string{"dir"})
	cacheOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseboard_cache_requests_total",
		Help: "Snapshot cache lookups by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(requests, duration, renders, fallbacks, cacheOps)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		pageRenders:     renders,
		fallbacks:       fallbacks,
		cacheOps:        cacheOps,
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

// PageRender counts a completed navigation.
func (m *Metrics) PageRender(view, report string) {
	if m == nil {
		return
	}
	m.pageRenders.WithLabelValues(view, report).Inc()
}

// SnapshotFallback counts a report load that walked back to an older week.
func (m *Metrics) SnapshotFallback(dir, requested, served string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(dir).Inc()
}

// CacheHit counts a snapshot served from the cache.
func (m *Metrics) CacheHit(dir string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues("hit").Inc()
}

// CacheMiss counts a snapshot loaded from the filesystem.
func (m *Metrics) CacheMiss(dir string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues("miss").Inc()
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
	return "unknown"
}
