// Package telemetry groups the observability packages of the Books API.
//
//   - logging: structured slog logging with a runtime-adjustable level
//   - metrics: the metrics registry, text exposition and request interceptor
//   - tracing: OpenTelemetry tracing exported over OTLP gRPC
//   - health: liveness and readiness probes
//
// The packages are wired together in pkg/server; none of them depends on
// another telemetry package.
package telemetry
