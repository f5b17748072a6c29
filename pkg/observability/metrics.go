package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/platinummonkey/mockapi/pkg/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnmatchedRoute labels requests that did not match any route
const UnmatchedRoute = "unmatched"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Resource repository metrics
	ResourceOperationsTotal *prometheus.CounterVec

	// Catalog metrics
	CatalogRecords      *prometheus.GaugeVec
	CatalogLoadsTotal   *prometheus.CounterVec
	CatalogLastLoadTime prometheus.Gauge

	// Auth metrics
	TokensIssuedTotal prometheus.Counter
	AuthFailuresTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mockapi_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mockapi_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mockapi_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		ResourceOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mockapi_resource_operations_total",
				Help: "Total number of resource repository operations",
			},
			[]string{"operation", "outcome"},
		),

		CatalogRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mockapi_catalog_records",
				Help: "Number of records per catalog collection",
			},
			[]string{"collection"},
		),
		CatalogLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mockapi_catalog_loads_total",
				Help: "Total number of catalog load attempts",
			},
			[]string{"status"},
		),
		CatalogLastLoadTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mockapi_catalog_last_load_timestamp_seconds",
				Help: "Unix time of the last successful catalog load",
			},
		),

		TokensIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mockapi_tokens_issued_total",
				Help: "Total number of bearer tokens issued",
			},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mockapi_auth_failures_total",
				Help: "Total number of rejected credentials",
			},
			[]string{"scheme", "reason"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.ResourceOperationsTotal,
		m.CatalogRecords,
		m.CatalogLoadsTotal,
		m.CatalogLastLoadTime,
		m.TokensIssuedTotal,
		m.AuthFailuresTotal,
	)

	return m
}

// RecordResourceOperation counts one resource repository call
func (m *Metrics) RecordResourceOperation(operation, outcome string) {
	m.ResourceOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordTokenIssued counts one issued bearer token
func (m *Metrics) RecordTokenIssued() {
	m.TokensIssuedTotal.Inc()
}

// RecordAuthFailure counts one rejected credential
func (m *Metrics) RecordAuthFailure(scheme auth.Scheme, reason string) {
	m.AuthFailuresTotal.WithLabelValues(string(scheme), reason).Inc()
}

// RecordCatalogLoad publishes the per-collection record counts of a
// successful load.
func (m *Metrics) RecordCatalogLoad(counts map[string]int, at time.Time) {
	m.CatalogLoadsTotal.WithLabelValues("success").Inc()
	m.CatalogLastLoadTime.Set(float64(at.Unix()))
	for name, n := range counts {
		m.CatalogRecords.WithLabelValues(name).Set(float64(n))
	}
}

// RecordCatalogLoadFailure counts a failed load
func (m *Metrics) RecordCatalogLoadFailure() {
	m.CatalogLoadsTotal.WithLabelValues("failure").Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// RouteLabeler maps a request to a low-cardinality path label
type RouteLabeler func(r *http.Request) string

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// A nil labeler uses the raw URL path.
func HTTPMetricsMiddleware(metrics *Metrics, labeler RouteLabeler) func(http.Handler) http.Handler {
	if labeler == nil {
		labeler = func(r *http.Request) string { return r.URL.Path }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := labeler(r)

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
