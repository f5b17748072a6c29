package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/platinummonkey/mockapi/pkg/contextkeys"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader carries the trace id of the request span back to the caller
const TraceIDHeader = "X-Trace-ID"

// TracingConfig holds OpenTelemetry tracing configuration
type TracingConfig struct {
	// Endpoint is the OTLP/gRPC collector address; empty disables tracing
	Endpoint       string
	Insecure       bool
	ServiceName    string
	ServiceVersion string
}

// InitTracing creates a tracer provider exporting to cfg.Endpoint and
// installs it globally. It returns nil when tracing is disabled.
func InitTracing(ctx context.Context, cfg TracingConfig, log *logrus.Logger) (*sdktrace.TracerProvider, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.Endpoint == "" {
		log.Debug("Tracing is disabled")
		return nil, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
		resource.WithFromEnv(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.WithField("endpoint", cfg.Endpoint).Info("Tracing initialized")
	return tp, nil
}

// ShutdownTracing flushes and stops tp. A nil provider is a no-op.
func ShutdownTracing(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}
	return nil
}

// TracingMiddleware starts a server span per request, named after the
// matched route. The trace id is echoed in TraceIDHeader and added to the
// request logger.
func TracingMiddleware(tp trace.TracerProvider, labeler RouteLabeler) func(http.Handler) http.Handler {
	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	return func(next http.Handler) http.Handler {
		tagged := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := trace.SpanContextFromContext(r.Context())
			if !sc.IsValid() {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(TraceIDHeader, sc.TraceID().String())
			ctx := r.Context()
			if entry, ok := contextkeys.GetLogger(ctx).(*logrus.Entry); ok && entry != nil {
				ctx = contextkeys.WithLogger(ctx, entry.WithFields(logrus.Fields{
					"trace_id": sc.TraceID().String(),
					"span_id":  sc.SpanID().String(),
				}))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})

		return otelhttp.NewHandler(tagged, "http.server",
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithPropagators(propagator),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + labeler(r)
			}),
		)
	}
}
