// Package tracing installs the OpenTelemetry tracer provider used for
// name-resolution and HTTP spans.
package tracing

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/litescript/ls-odl/internal/logging"
	"github.com/litescript/ls-odl/internal/version"
)

// ServiceName identifies this program in exported spans.
const ServiceName = "ls-odl"

// Config governs how tracing is initialised.
type Config struct {
	Exporter    string // none, stdout or otlp
	Endpoint    string // otlp collector host:port
	Insecure    bool   // otlp without TLS
	SampleRatio float64
	Writer      io.Writer // stdout exporter destination
}

// Init installs a global tracer provider per cfg and returns a function
// that flushes and stops it. Exporter "none" installs a no-op provider.
func Init(ctx context.Context, cfg Config, log *logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Discard()
	}

	exporter := strings.ToLower(cfg.Exporter)
	if exporter == "" || exporter == "none" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Debug("tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", version.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.With("exporter", exporter, "sample_ratio", cfg.SampleRatio).Info("tracing enabled")
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case "stdout":
		opts := []stdouttrace.Option{stdouttrace.WithoutTimestamps()}
		if cfg.Writer != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Writer))
		}
		return stdouttrace.New(opts...)
	case "otlp":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}
}

// Shutdown calls shutdown with a bounded timeout, logging failures.
func Shutdown(ctx context.Context, shutdown func(context.Context) error, log *logging.Logger) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil && log != nil {
		log.Warn("tracing shutdown failed: %v", err)
	}
}
