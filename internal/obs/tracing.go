package obs

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig selects the exporter and sampling for InitTracer.
type TracingConfig struct {
	ServiceName   string
	Environment   string
	Exporter      string // otlp | none
	Endpoint      string // host:port or full URL
	SamplingRatio float64
}

// InitTracer installs a global tracer provider. Child spans follow the
// caller's sampling decision so a payment webhook trace is never cut in half.
func InitTracer(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	var opts []otlptracehttp.Option
	switch strings.ToLower(strings.TrimSpace(cfg.Exporter)) {
	case "none", "noop":
		return noop, nil
	case "", "otlp":
		switch ep := strings.TrimSpace(cfg.Endpoint); {
		case strings.HasPrefix(ep, "http://"), strings.HasPrefix(ep, "https://"):
			opts = append(opts, otlptracehttp.WithEndpointURL(ep))
		case ep != "":
			opts = append(opts, otlptracehttp.WithEndpoint(ep), otlptracehttp.WithInsecure())
		}
	default:
		return nil, fmt.Errorf("obs: unsupported tracing exporter %q", cfg.Exporter)
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("obs: otlp exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("obs: tracing resource: %w", err)
	}

	ratio := cfg.SamplingRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown, nil
}

// Tracing wraps the router in an otelhttp server span and renames it to the
// matched route once routing has finished.
func Tracing(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		named := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			span := trace.SpanFromContext(r.Context())
			if route := RoutePattern(r.Context()); route != "" {
				span.SetName(r.Method + " " + route)
				span.SetAttributes(attribute.String("http.route", route))
			}
			if userID, _ := infoFrom(r.Context()).snapshot(); userID != "" {
				span.SetAttributes(attribute.String("enduser.id", userID))
			}
		})
		return otelhttp.NewHandler(named, operation)
	}
}
