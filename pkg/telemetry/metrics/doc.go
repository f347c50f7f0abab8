// Package metrics implements the request metrics of the Books API: a
// metric registry with counters, gauges and cumulative histograms, a request
// interceptor feeding it, and a renderer for the Prometheus text exposition
// format.
//
// # Registry
//
// A Registry is created explicitly at startup and passed to every component
// that records metrics. Families are registered before traffic starts; their
// series are created lazily the first time a label combination is seen.
//
//	reg := metrics.NewRegistry()
//	reg.MustRegister("books_api_requests_total", "Total number of requests",
//		metrics.KindCounter, []string{"method", "endpoint", "status"})
//
//	c, err := reg.Counter("books_api_requests_total", "GET", "books", "200")
//	if err != nil {
//		return err
//	}
//	c.Inc()
//
// Counter and gauge values are lock-free atomic floats. Histograms hold a
// short per-series lock so bucket counts, sum and count are read together.
//
// # Interceptor
//
// The Interceptor wraps every HTTP request:
//
//	tok := ic.OnRequestStart(r.Method, r.URL.Path)
//	defer ic.OnRequestEnd(tok, route, status)
//
// It maintains these metrics (namespace "books_api" by default):
//
//	books_api_requests_total{method,endpoint,status}  counter
//	books_api_request_duration_seconds                histogram
//	books_api_requests_in_progress                    gauge
//	books_api_exceptions_total                        counter
//	books_api_db_operations_total{operation}          counter
//	books_api_books_count                             gauge
//
// # Exposition
//
// Registry implements prometheus.Gatherer. Render writes the text format
// through prometheus/common/expfmt and Handler serves it on /metrics via
// promhttp.
package metrics
