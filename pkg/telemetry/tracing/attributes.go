package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys specific to the Books API.
const (
	AttrRequestID   = "books.request_id"
	AttrBookID      = "books.book_id"
	AttrDBOperation = "books.db.operation"
	AttrBooksCount  = "books.count"
)

// ServerAttributes describes an incoming request.
func ServerAttributes(method, target, route, requestID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.HTTPMethod(method),
		attribute.String("url.path", target),
	}
	if route != "" {
		attrs = append(attrs, semconv.HTTPRoute(route))
	}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	return attrs
}

// SetHTTPStatus records the response status and marks 5xx responses failed.
func SetHTTPStatus(span trace.Span, route string, status int) {
	if route != "" {
		span.SetAttributes(semconv.HTTPRoute(route))
	}
	span.SetAttributes(semconv.HTTPStatusCode(status))
	if status >= 500 {
		span.SetAttributes(attribute.Bool("error", true))
	}
}

// SetDBOperation annotates a storage span.
func SetDBOperation(span trace.Span, system, operation string) {
	span.SetAttributes(
		semconv.DBSystemKey.String(system),
		attribute.String(AttrDBOperation, operation),
	)
}

// SetBookID annotates a span operating on one book.
func SetBookID(span trace.Span, id int64) {
	span.SetAttributes(attribute.Int64(AttrBookID, id))
}
