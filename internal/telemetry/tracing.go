package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects where load and fetch spans are exported. GRPCEndpoint wins
// when both endpoints are set.
type Config struct {
	Enabled      bool
	ServiceName  string
	HTTPEndpoint string
	GRPCEndpoint string
	Headers      map[string]string
	SampleRatio  float64
}

// ShutdownFunc flushes pending spans and stops the exporter
type ShutdownFunc func(context.Context) error

var ErrNoEndpoint = errors.New("tracing is enabled but no OTLP endpoint is configured")

// Setup installs a global tracer provider exporting over OTLP. With tracing
// disabled the global no-op provider stays in place.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp, err := NewTracerProvider(exporter, cfg.ServiceName, cfg.SampleRatio)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// NewTracerProvider batches spans to exporter, sampling sampleRatio of new
// traces. Ratios outside (0, 1] sample everything.
func NewTracerProvider(exporter sdktrace.SpanExporter, serviceName string, sampleRatio float64) (*sdktrace.TracerProvider, error) {
	if serviceName == "" {
		serviceName = "dataframe-gateway"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	sampler := sdktrace.AlwaysSample()
	if sampleRatio > 0 && sampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	), nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	switch {
	case cfg.GRPCEndpoint != "":
		slog.Info("trace exporter initialized", "type", "grpc", "endpoint", cfg.GRPCEndpoint, "headers", len(cfg.Headers) > 0)
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(cfg.GRPCEndpoint),
			otlptracegrpc.WithHeaders(cfg.Headers),
		)
	case cfg.HTTPEndpoint != "":
		slog.Info("trace exporter initialized", "type", "http", "endpoint", cfg.HTTPEndpoint, "headers", len(cfg.Headers) > 0)
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(cfg.HTTPEndpoint),
			otlptracehttp.WithHeaders(cfg.Headers),
		)
	default:
		return nil, ErrNoEndpoint
	}
}
