package logging

import "context"

// ctxField identifies a request-scoped value copied into log records.
type ctxField uint8

const (
	requestIDField ctxField = iota
	traceIDField
)

// logKeys are the record attribute names, in the order they are emitted.
var logKeys = [...]string{
	requestIDField: "request_id",
	traceIDField:   "trace_id",
}

// WithRequestID stores the request ID set by the RequestID middleware.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDField, requestID)
}

// GetRequestID returns the request ID, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	return stringField(ctx, requestIDField)
}

// WithTraceID stores the ID of the trace the request belongs to.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDField, traceID)
}

// GetTraceID returns the trace ID, or "" when tracing is off.
func GetTraceID(ctx context.Context) string {
	return stringField(ctx, traceIDField)
}

func stringField(ctx context.Context, f ctxField) string {
	v, _ := ctx.Value(f).(string)
	return v
}

// extractContextFields returns the non-empty request fields of ctx as
// key/value pairs for slog.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for f, key := range logKeys {
		if v := stringField(ctx, ctxField(f)); v != "" {
			fields = append(fields, key, v)
		}
	}
	return fields
}
