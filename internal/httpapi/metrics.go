package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service's Prometheus collectors. Each instance has its own
// registry so tests can build routers in parallel.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	uploads         *prometheus.CounterVec
	uploadedBytes   prometheus.Counter
	deletes         *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filesvc_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filesvc_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filesvc_uploads_total",
			Help: "Upload attempts by outcome (created, reused or an error code).",
		}, []string{"outcome"}),
		uploadedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "filesvc_uploaded_bytes_total",
			Help: "Bytes accepted by successful uploads.",
		}),
		deletes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filesvc_deletes_total",
			Help: "Delete attempts by outcome.",
		}, []string{"outcome"}),
		eventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filesvc_events_published_total",
			Help: "Event deliveries by type and result.",
		}, []string{"event_type", "result"}),
		eventsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filesvc_events_dropped_total",
			Help: "Events dropped before delivery because the queue was full or stopped.",
		}, []string{"event_type"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency. The route label is the chi
// pattern, so ids in paths do not create new series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) uploadDone(outcome string, size int64) {
	m.uploads.WithLabelValues(outcome).Inc()
	if size > 0 {
		m.uploadedBytes.Add(float64(size))
	}
}

func (m *Metrics) deleteDone(outcome string) {
	m.deletes.WithLabelValues(outcome).Inc()
}

// EventPublished and EventDropped make Metrics an events.Observer.
func (m *Metrics) EventPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) EventDropped(eventType string) {
	m.eventsDropped.WithLabelValues(eventType).Inc()
}
