package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"bookshelf-hq/booksapi/pkg/api/types"
	"bookshelf-hq/booksapi/pkg/config"
	"bookshelf-hq/booksapi/pkg/telemetry/logging"
	"bookshelf-hq/booksapi/pkg/telemetry/metrics"
	"bookshelf-hq/booksapi/pkg/telemetry/tracing"
)

// newChain builds Recovery → Metrics → router with RouteCapture, the order
// used by the server.
func newChain(t *testing.T) (http.Handler, *metrics.Interceptor) {
	t.Helper()

	ic, err := metrics.NewInterceptor(metrics.NewRegistry(), metrics.Options{})
	if err != nil {
		t.Fatalf("NewInterceptor: %v", err)
	}

	router := mux.NewRouter()
	router.Use(RouteCapture)
	router.HandleFunc("/books", func(w http.ResponseWriter, r *http.Request) {
		types.WriteJSON(w, http.StatusOK, []string{})
	}).Methods(http.MethodGet)
	router.HandleFunc("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		types.WriteError(w, http.StatusNotFound, "Book with ID 9 not found")
	}).Methods(http.MethodGet)
	router.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("database exploded")
	})

	quiet := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return Recovery(quiet)(Metrics(ic)(router)), ic
}

func TestMetrics_EndpointLabels(t *testing.T) {
	handler, ic := newChain(t)

	for _, target := range []string{"/books", "/books", "/books/9", "/nope"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	expected := `
# HELP books_api_requests_total Total number of requests to the Books API
# TYPE books_api_requests_total counter
books_api_requests_total{endpoint="books",method="GET",status="200"} 2
books_api_requests_total{endpoint="books/{id}",method="GET",status="404"} 1
books_api_requests_total{endpoint="unmatched",method="GET",status="404"} 1
`
	if err := testutil.GatherAndCompare(ic.Registry(), strings.NewReader(expected), "books_api_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestMetrics_Panic(t *testing.T) {
	handler, ic := newChain(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", rec.Code)
	}
	var resp types.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error == "" {
		t.Errorf("expected JSON error body, got %q", rec.Body.String())
	}

	expected := `
# HELP books_api_exceptions_total Exceptions caught during request processing
# TYPE books_api_exceptions_total counter
books_api_exceptions_total 1
# HELP books_api_requests_in_progress Number of requests in progress
# TYPE books_api_requests_in_progress gauge
books_api_requests_in_progress 0
# HELP books_api_requests_total Total number of requests to the Books API
# TYPE books_api_requests_total counter
books_api_requests_total{endpoint="boom",method="GET",status="500"} 1
`
	if err := testutil.GatherAndCompare(ic.Registry(), strings.NewReader(expected),
		"books_api_exceptions_total", "books_api_requests_in_progress", "books_api_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestMetrics_ConcurrentWithPanics(t *testing.T) {
	handler, ic := newChain(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		target := "/books"
		if i%3 == 0 {
			target = "/boom"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
		}()
	}
	wg.Wait()

	g, _ := ic.Registry().Gauge("books_api_requests_in_progress")
	if g.Value() != 0 {
		t.Errorf("in-flight = %v, want 0", g.Value())
	}
	h, _ := ic.Registry().Histogram("books_api_request_duration_seconds")
	if got := h.Snapshot().Count; got != 10 {
		t.Errorf("duration count = %d, want 10", got)
	}
	c, _ := ic.Registry().Counter("books_api_exceptions_total")
	if c.Value() != 4 {
		t.Errorf("exceptions = %v, want 4", c.Value())
	}
}

func TestMetrics_AbortHandlerNotAnException(t *testing.T) {
	ic, err := metrics.NewInterceptor(metrics.NewRegistry(), metrics.Options{})
	if err != nil {
		t.Fatal(err)
	}
	handler := Recovery(nil)(Metrics(ic)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})))

	func() {
		defer func() {
			if err := recover(); err != http.ErrAbortHandler {
				t.Errorf("expected ErrAbortHandler to propagate, got %v", err)
			}
		}()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}()

	if c, _ := ic.Registry().Counter("books_api_exceptions_total"); c.Value() != 0 {
		t.Errorf("exceptions = %v, want 0", c.Value())
	}
	if g, _ := ic.Registry().Gauge("books_api_requests_in_progress"); g.Value() != 0 {
		t.Errorf("in-flight = %v, want 0", g.Value())
	}
}

func TestRecovery_AbortHandler(t *testing.T) {
	handler := Recovery(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if err := recover(); err != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", err)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetRequestID(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"client supplied", "req-abc-123", true},
		{"too long", strings.Repeat("x", maxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got != seen {
				t.Errorf("header %q differs from context %q", got, seen)
			}
			if tt.keep {
				if got != tt.incoming {
					t.Errorf("request ID = %q, want %q", got, tt.incoming)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("expected a generated UUID, got %q", got)
			}
		})
	}
}

func TestLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, nil))

	handler := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	req := httptest.NewRequest(http.MethodGet, "/books/9", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"msg":        "request completed",
		"level":      "WARN",
		"status":     float64(404),
		"path":       "/books/9",
		"request_id": "req-7",
		"component":  "api",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithOptions(config.TracingConfig{Enabled: true, Sampler: tracing.SamplerAlways, ServiceName: "test"},
		"test", sdktrace.WithSyncer(exporter))
	if err != nil {
		t.Fatal(err)
	}
	defer tracer.Shutdown(context.Background())

	ic, err := metrics.NewInterceptor(metrics.NewRegistry(), metrics.Options{})
	if err != nil {
		t.Fatal(err)
	}

	var traceID string
	router := mux.NewRouter()
	router.Use(RouteCapture)
	router.HandleFunc("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		traceID = logging.GetTraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := Metrics(ic)(Tracing(tracer)(router))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/books/3", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "GET books/{id}" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	if traceID == "" || traceID != spans[0].SpanContext.TraceID().String() {
		t.Errorf("trace ID in context %q does not match span", traceID)
	}
}

func TestTracing_Disabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := Tracing(tracing.Disabled())(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d", rec.Code)
	}
}
