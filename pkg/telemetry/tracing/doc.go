// Package tracing provides OpenTelemetry tracing for the Books API.
//
// When enabled, spans are batched and exported over OTLP gRPC to the
// configured collector. Incoming W3C trace context is honoured through a
// parent-based sampler, so a caller's sampling decision is kept:
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(tracing.Extract(r.Context(), r.Header), "GET books/{id}")
//	defer span.End()
//
// When disabled, Start returns noop spans and nothing is exported.
package tracing
