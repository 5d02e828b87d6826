package tracer

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_EmptyEndpoint(t *testing.T) {
	p, err := New(context.Background(), Config{ServiceName: "test-service"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if p.Enabled() {
		t.Error("provider without endpoint should not export")
	}

	_, span := p.Tracer("").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("noop provider should produce invalid span contexts")
	}
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown returned error: %v", err)
	}
}

func TestNew_WithEndpoint(t *testing.T) {
	// The exporter connects lazily, so no collector is needed.
	p, err := New(context.Background(), Config{Endpoint: "localhost:4317", Insecure: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !p.Enabled() {
		t.Error("provider with endpoint should export")
	}
	if p.serviceName != DefaultServiceName {
		t.Errorf("serviceName = %q, want %q", p.serviceName, DefaultServiceName)
	}
	_ = p.Shutdown(context.Background())
}

func TestNewWithExporter_RecordsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	p := NewWithExporter(Config{ServiceName: "ledger-test"}, exp)
	defer p.Shutdown(context.Background())

	ctx, parent := p.Tracer("test").Start(context.Background(), "parent")
	_, child := p.Tracer("test").Start(ctx, "child")
	child.RecordError(errors.New("boom"))
	child.End()
	parent.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if spans[0].Name != "child" || spans[1].Name != "parent" {
		t.Errorf("span names = %s, %s", spans[0].Name, spans[1].Name)
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("child span should reference its parent")
	}

	var svc string
	for _, kv := range spans[1].Resource.Attributes() {
		if kv.Key == "service.name" {
			svc = kv.Value.AsString()
		}
	}
	if svc != "ledger-test" {
		t.Errorf("service.name = %q, want ledger-test", svc)
	}
}

func TestProvider_ShutdownMultiple(t *testing.T) {
	p := NewWithExporter(Config{}, tracetest.NewInMemoryExporter())
	for i := 0; i < 3; i++ {
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown call %d returned error: %v", i, err)
		}
	}
}

func TestInstall_GlobalPropagation(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	}()

	exp := tracetest.NewInMemoryExporter()
	p := NewWithExporter(Config{}, exp)
	p.Install()

	ctx, span := StartSpan(context.Background(), "outgoing", attribute.Int64("ledger.account", 1))
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	span.End()

	if carrier.Get("traceparent") == "" {
		t.Fatal("traceparent header was not injected")
	}

	extracted := otel.GetTextMapPropagator().Extract(context.Background(), carrier)
	_, remote := StartSpan(extracted, "incoming")
	remote.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if spans[1].SpanContext.TraceID() != spans[0].SpanContext.TraceID() {
		t.Error("extracted context should continue the same trace")
	}
}
