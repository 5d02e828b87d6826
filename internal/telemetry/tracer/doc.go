// Package tracer provides OpenTelemetry tracing for LedgerMesh.
//
// Provider wraps an SDK tracer provider. When an OTLP endpoint is
// configured spans are batched and exported over gRPC; otherwise a no-op
// provider is used and tracing costs nothing. Install makes the provider
// and the W3C trace-context propagator global so HTTP handlers can join
// incoming traces.
package tracer
