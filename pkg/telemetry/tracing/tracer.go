package tracing

import (
	"context"
	"fmt"

	"bookshelf-hq/booksapi/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials/insecure"
)

// InstrumentationName names the tracer used by the service.
const InstrumentationName = "bookshelf-hq/booksapi"

// Tracer wraps the OpenTelemetry tracer of the service. A disabled Tracer
// hands out noop spans.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	enabled  bool
}

// New creates a Tracer exporting over OTLP gRPC to cfg.Endpoint. When tracing
// is disabled no exporter is created.
//
// The tracer must be shut down to flush pending spans:
//
//	defer tracer.Shutdown(context.Background())
func New(cfg config.TracingConfig, version string) (*Tracer, error) {
	if !cfg.Enabled {
		return Disabled(), nil
	}

	exporter, err := newOTLPExporter(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(cfg, version, sdktrace.WithBatcher(exporter))
}

// Disabled returns a Tracer producing noop spans.
func Disabled() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer(InstrumentationName)}
}

// NewWithOptions creates an enabled Tracer whose provider is built from opts,
// which must register a span processor, e.g. sdktrace.WithSyncer for an
// in-memory exporter. The sampler and resource come from cfg.
func NewWithOptions(cfg config.TracingConfig, version string, opts ...sdktrace.TracerProviderOption) (*Tracer, error) {
	sampler, err := createSampler(cfg.Sampler, cfg.SampleRatio)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts = append(opts,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	provider := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return &Tracer{
		tracer:   provider.Tracer(InstrumentationName),
		provider: provider,
		enabled:  true,
	}, nil
}

// newOTLPExporter creates the OTLP gRPC exporter. The connection is
// established lazily so startup does not wait for the collector.
func newOTLPExporter(cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(cfg.Timeout))
	}

	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return exporter, nil
}

// Start creates a span that is a child of the span in ctx, if any.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans and stops the exporter.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.enabled || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// Enabled returns whether spans are recorded and exported.
func (t *Tracer) Enabled() bool {
	return t.enabled
}

// TraceID returns the trace ID of the span in ctx, or "" if there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID returns the span ID of the span in ctx, or "" if there is none.
func SpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}

// SetError records err on the span and marks it failed. A nil err is ignored.
func SetError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("error", true))
	span.SetStatus(codes.Error, err.Error())
}
