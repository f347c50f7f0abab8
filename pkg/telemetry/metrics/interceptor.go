package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.uber.org/atomic"
)

// DefaultNamespace prefixes every metric recorded by the Interceptor.
const DefaultNamespace = "books_api"

// UnmatchedEndpoint is the endpoint label of requests that matched no route.
const UnmatchedEndpoint = "unmatched"

// Metric name suffixes, joined to the namespace with an underscore.
const (
	RequestsTotal      = "requests_total"
	RequestDuration    = "request_duration_seconds"
	RequestsInProgress = "requests_in_progress"
	ExceptionsTotal    = "exceptions_total"
	DBOperationsTotal  = "db_operations_total"
	BooksCount         = "books_count"
)

// Options configures an Interceptor.
type Options struct {
	// Namespace is the metric name prefix. Defaults to DefaultNamespace.
	Namespace string

	// DurationBuckets overrides the request duration histogram bounds.
	// Defaults to DefBuckets.
	DurationBuckets []float64

	// Logger receives metrics errors. Defaults to slog.Default().
	Logger *slog.Logger
}

// Interceptor records request lifecycle metrics. The HTTP transport calls
// OnRequestStart before the handler and OnRequestEnd after it; the catalogue
// calls SetGaugeValue and RecordDBOperation.
//
// Errors from the registry are logged and never returned to the caller, so a
// metrics wiring bug cannot fail a business request.
type Interceptor struct {
	reg    *Registry
	ns     string
	logger *slog.Logger

	requestsTotal string
	dbOperations  string

	inFlight   Gauge
	duration   Histogram
	exceptions Counter
}

// NewInterceptor registers the request metrics on reg and returns an
// Interceptor recording into them. It fails if any metric conflicts with an
// existing registration.
func NewInterceptor(reg *Registry, opts Options) (*Interceptor, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ic := &Interceptor{
		reg:           reg,
		ns:            opts.Namespace,
		logger:        opts.Logger.With("component", "telemetry.metrics"),
		requestsTotal: opts.Namespace + "_" + RequestsTotal,
		dbOperations:  opts.Namespace + "_" + DBOperationsTotal,
	}

	var bucketOpts []Option
	if len(opts.DurationBuckets) > 0 {
		bucketOpts = append(bucketOpts, WithBuckets(opts.DurationBuckets...))
	}

	regs := []struct {
		suffix string
		help   string
		kind   Kind
		labels []string
		opts   []Option
	}{
		{RequestsTotal, "Total number of requests to the Books API", KindCounter, []string{"method", "endpoint", "status"}, nil},
		{RequestDuration, "Time spent processing request", KindHistogram, nil, bucketOpts},
		{RequestsInProgress, "Number of requests in progress", KindGauge, nil, nil},
		{ExceptionsTotal, "Exceptions caught during request processing", KindCounter, nil, nil},
		{DBOperationsTotal, "Total database operations", KindCounter, []string{"operation"}, nil},
		{BooksCount, "Number of books in the database", KindGauge, nil, nil},
	}
	for _, m := range regs {
		if _, err := reg.Register(ic.name(m.suffix), m.help, m.kind, m.labels, m.opts...); err != nil {
			return nil, err
		}
	}

	var err error
	if ic.inFlight, err = reg.Gauge(ic.name(RequestsInProgress)); err != nil {
		return nil, err
	}
	if ic.duration, err = reg.Histogram(ic.name(RequestDuration)); err != nil {
		return nil, err
	}
	if ic.exceptions, err = reg.Counter(ic.name(ExceptionsTotal)); err != nil {
		return nil, err
	}

	return ic, nil
}

// Registry returns the registry the interceptor records into.
func (ic *Interceptor) Registry() *Registry { return ic.reg }

// Namespace returns the metric name prefix.
func (ic *Interceptor) Namespace() string { return ic.ns }

func (ic *Interceptor) name(suffix string) string {
	return ic.ns + "_" + suffix
}

func (ic *Interceptor) registered(name string) bool {
	_, ok := ic.reg.Descriptor(name)
	return ok
}

// RequestToken carries the per-request state between OnRequestStart and
// OnRequestEnd. It lives in the request context, never in shared state.
type RequestToken struct {
	method  string
	rawPath string
	start   time.Time

	route atomic.String
	ended atomic.Bool
}

// Method returns the request method recorded at start.
func (t *RequestToken) Method() string { return t.method }

// RawPath returns the unnormalized request path recorded at start.
func (t *RequestToken) RawPath() string { return t.rawPath }

// SetRoute records the matched route pattern. The router calls it once the
// route is known; OnRequestEnd falls back to it when given an empty route.
func (t *RequestToken) SetRoute(route string) { t.route.Store(route) }

// Route returns the route recorded with SetRoute.
func (t *RequestToken) Route() string { return t.route.Load() }

// Ended reports whether OnRequestEnd already ran for this token.
func (t *RequestToken) Ended() bool { return t.ended.Load() }

// OnRequestStart marks a request as in flight and returns its token.
func (ic *Interceptor) OnRequestStart(method, rawPath string) *RequestToken {
	ic.inFlight.Inc()
	return &RequestToken{
		method:  method,
		rawPath: rawPath,
		start:   time.Now(),
	}
}

// OnRequestEnd completes the accounting of a request: the in-flight gauge
// is released, the elapsed time observed and the request counted under
// method, normalized endpoint and status. Only the first call per token has
// an effect.
func (ic *Interceptor) OnRequestEnd(tok *RequestToken, route string, status int) {
	if tok == nil || !tok.ended.CompareAndSwap(false, true) {
		return
	}

	ic.inFlight.Dec()
	ic.duration.Observe(time.Since(tok.start).Seconds())

	if route == "" {
		route = tok.Route()
	}
	c, err := ic.reg.Counter(ic.requestsTotal, tok.method, NormalizeEndpoint(route), strconv.Itoa(status))
	if err != nil {
		ic.logger.Error("failed to record request", "error", err, "method", tok.method, "path", tok.rawPath)
		return
	}
	c.Inc()
}

// OnException counts an unhandled handler error. It does not complete the
// request; OnRequestEnd must still be called.
func (ic *Interceptor) OnException(_ *RequestToken) {
	ic.RecordException()
}

// RecordException increments the exception counter.
func (ic *Interceptor) RecordException() {
	ic.exceptions.Inc()
}

// SetGaugeValue overwrites a business gauge. name may be given with or
// without the namespace prefix, e.g. "books_count". The qualified name wins
// when both are registered.
func (ic *Interceptor) SetGaugeValue(name string, value float64) error {
	if qualified := ic.name(name); ic.registered(qualified) {
		name = qualified
	}
	g, err := ic.reg.Gauge(name)
	if err != nil {
		ic.logger.Error("failed to set gauge", "error", err, "metric", name)
		return err
	}
	g.Set(value)
	return nil
}

// RecordDBOperation counts one storage call, e.g. "select" or "insert".
func (ic *Interceptor) RecordDBOperation(operation string) {
	c, err := ic.reg.Counter(ic.dbOperations, operation)
	if err != nil {
		ic.logger.Error("failed to record db operation", "error", err, "operation", operation)
		return
	}
	c.Inc()
}

// NormalizeEndpoint maps a route pattern to the endpoint label. Routes are
// named after their pattern without the leading slash, "/" is "root" and an
// empty pattern is UnmatchedEndpoint.
func NormalizeEndpoint(route string) string {
	switch route {
	case "":
		return UnmatchedEndpoint
	case "/":
		return "root"
	default:
		return strings.TrimPrefix(route, "/")
	}
}

type tokenKey struct{}

// WithToken returns a copy of ctx carrying tok.
func WithToken(ctx context.Context, tok *RequestToken) context.Context {
	return context.WithValue(ctx, tokenKey{}, tok)
}

// TokenFromContext returns the token stored by WithToken, or nil.
func TokenFromContext(ctx context.Context) *RequestToken {
	tok, _ := ctx.Value(tokenKey{}).(*RequestToken)
	return tok
}
