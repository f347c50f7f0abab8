package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"bookshelf-hq/booksapi/pkg/telemetry/logging"
	"bookshelf-hq/booksapi/pkg/telemetry/metrics"
	"bookshelf-hq/booksapi/pkg/telemetry/tracing"
)

// Tracing starts a server span per request, continuing any W3C trace context
// sent by the client. The span is renamed after the matched route once the
// router has run, and the trace ID is made available to loggers through
// logging.WithTraceID.
func Tracing(tracer *tracing.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tracer == nil || !tracer.Enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tracing.Extract(r.Context(), r.Header)
			ctx, span := tracer.Start(ctx, r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(tracing.ServerAttributes(r.Method, r.URL.Path, "", logging.GetRequestID(ctx))...),
			)
			if traceID := tracing.TraceID(ctx); traceID != "" {
				ctx = logging.WithTraceID(ctx, traceID)
			}

			rw := newResponseWriter(w)
			status := http.StatusInternalServerError

			defer func() {
				route := ""
				if tok := metrics.TokenFromContext(r.Context()); tok != nil {
					route = tok.Route()
				}
				if route != "" {
					span.SetName(r.Method + " " + strings.TrimPrefix(route, "/"))
				}
				if err := recover(); err != nil {
					tracing.SetHTTPStatus(span, route, http.StatusInternalServerError)
					span.End()
					panic(err)
				}
				tracing.SetHTTPStatus(span, route, status)
				span.End()
			}()

			next.ServeHTTP(rw, r.WithContext(ctx))
			status = rw.statusCode
		})
	}
}
