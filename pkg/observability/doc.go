// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, health checks and graceful shutdown.
//
// # Structured Logging
//
// Create logger:
//
//	logger, err := observability.NewLogger("info", observability.FormatJSON, os.Stdout)
//	logger.WithField("port", 8000).Info("Server started")
//
// Request-scoped logging:
//
//	observability.FromContext(r.Context(), logger).Warn("Resource not found")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	handler = observability.HTTPMetricsMiddleware(metrics, labeler)(handler)
//
// Metrics implements the recorder interfaces of pkg/resources and pkg/auth,
// and RecordCatalogLoad is meant to be installed as a catalog load hook.
//
// # Tracing
//
// InitTracing returns nil when no OTLP endpoint is configured:
//
//	tp, err := observability.InitTracing(ctx, observability.TracingConfig{Endpoint: "otel:4317"}, logger)
//	defer observability.ShutdownTracing(ctx, tp)
//	handler = observability.TracingMiddleware(tp, labeler)(handler)
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("catalog", true, func(ctx context.Context) error { ... })
//	observability.RegisterHealthRoutes(mux, checker)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request logging middleware
package observability
