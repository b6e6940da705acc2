package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the service's Prometheus collectors behind a private
// registry so /metrics only exposes what we register.
type Registry struct {
	reg *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DocumentSaves   prometheus.Counter
	UploadFallbacks prometheus.Counter
	CatalogSize     prometheus.Gauge
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
	saves := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_document_saves_total",
		Help: "Successful catalog document writes.",
	})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_upload_fallbacks_total",
		Help: "Image uploads that degraded to inline data URIs.",
	})
	size := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_products",
		Help: "Products in the catalog document after the last save.",
	})

	r.MustRegister(requests, duration, saves, fallbacks, size)
	return &Registry{
		reg:             r,
		RequestsTotal:   requests,
		RequestDuration: duration,
		DocumentSaves:   saves,
		UploadFallbacks: fallbacks,
		CatalogSize:     size,
	}
}

// Handler serves the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Instrument records request count and latency for every handled request.
func (r *Registry) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)
		r.RequestsTotal.WithLabelValues(req.Method, req.URL.Path, strconv.Itoa(sw.status)).Inc()
		r.RequestDuration.WithLabelValues(req.Method, req.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
