package tracer

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultServiceName is used when Config.ServiceName is empty.
const DefaultServiceName = "ledgermesh"

// Config configures the tracer provider.
type Config struct {
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string

	// Endpoint is the OTLP gRPC collector address (host:port).
	// Empty disables export.
	Endpoint string

	// Insecure disables TLS towards the collector.
	Insecure bool

	// SampleRatio is the fraction of root spans sampled (0..1).
	// Zero means sample everything.
	SampleRatio float64
}

// Provider manages the OpenTelemetry tracer provider.
type Provider struct {
	serviceName string
	tp          trace.TracerProvider
	sdk         *sdktrace.TracerProvider
	shutdown    sync.Once
}

// New creates a tracer provider. With an empty endpoint it returns a no-op
// provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return &Provider{serviceName: serviceName(cfg), tp: noop.NewTracerProvider()}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("tracer: create otlp exporter: %w", err)
	}
	return newSDK(cfg, sdktrace.WithBatcher(exp)), nil
}

// NewWithExporter creates a provider that exports every span synchronously
// to exp. It is meant for tests and local debugging.
func NewWithExporter(cfg Config, exp sdktrace.SpanExporter) *Provider {
	return newSDK(cfg, sdktrace.WithSyncer(exp))
}

func newSDK(cfg Config, export sdktrace.TracerProviderOption) *Provider {
	name := serviceName(cfg)
	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}
	sdk := sdktrace.NewTracerProvider(
		export,
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)
	return &Provider{serviceName: name, tp: sdk, sdk: sdk}
}

func serviceName(cfg Config) string {
	if cfg.ServiceName == "" {
		return DefaultServiceName
	}
	return cfg.ServiceName
}

// Tracer returns a named tracer.
func (p *Provider) Tracer(name string) trace.Tracer {
	if name == "" {
		name = p.serviceName
	}
	return p.tp.Tracer(name)
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// Install sets p as the global tracer provider and installs the W3C trace
// context and baggage propagators.
func (p *Provider) Install() {
	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Shutdown flushes pending spans and stops the provider. Later calls are
// no-ops.
func (p *Provider) Shutdown(ctx context.Context) error {
	var err error
	p.shutdown.Do(func() {
		if p.sdk != nil {
			err = p.sdk.Shutdown(ctx)
		}
	})
	return err
}

// StartSpan starts a span from the global tracer provider.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(DefaultServiceName).Start(ctx, name, trace.WithAttributes(attrs...))
}
