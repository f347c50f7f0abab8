package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandlerOptions configures the scrape handler.
type HandlerOptions struct {
	// RuntimeMetrics adds Go runtime and process metrics to every scrape,
	// plus promhttp's own scrape counters.
	RuntimeMetrics bool

	// ErrorLog receives encoding errors. Nil discards them.
	ErrorLog promhttp.Logger
}

// Handler returns an HTTP handler for the metrics endpoint. It is
// equivalent to HandlerFor(r, HandlerOptions{}).
//
// Example:
//
//	reg := metrics.NewRegistry()
//	mux.Handle("/metrics", reg.Handler())
func (r *Registry) Handler() http.Handler {
	return HandlerFor(r, HandlerOptions{})
}

// HandlerFor returns a scrape handler serving reg in the text exposition
// format. Only GET is accepted; other methods get 405. Query parameters are
// ignored. Content negotiation and gzip are handled by promhttp.
func HandlerFor(reg *Registry, opts HandlerOptions) http.Handler {
	var gatherer prometheus.Gatherer = reg
	var runtime *prometheus.Registry

	if opts.RuntimeMetrics {
		runtime = prometheus.NewRegistry()
		runtime.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		gatherer = prometheus.Gatherers{reg, runtime}
	}

	var h http.Handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		// The books API is scraped with the classic text format only.
		EnableOpenMetrics: false,

		// A scrape never fails; broken families are logged and skipped.
		ErrorHandling: promhttp.ContinueOnError,
		ErrorLog:      opts.ErrorLog,
	})
	if runtime != nil {
		h = promhttp.InstrumentMetricHandler(runtime, h)
	}

	return getOnly(h)
}

func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
