package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"bookshelf-hq/booksapi/pkg/telemetry/metrics"
)

// Metrics records every request through the interceptor. The token travels
// in the request context so RouteCapture can attach the matched route.
//
// OnRequestEnd runs in a deferred call and so fires on every exit path: a
// normal return, a client abort, or a panic. A panic is recorded with status
// 500 and re-raised for Recovery. It also counts as an exception unless it
// is http.ErrAbortHandler.
func Metrics(ic *metrics.Interceptor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := ic.OnRequestStart(r.Method, r.URL.Path)
			rw := newResponseWriter(w)

			defer func() {
				if err := recover(); err != nil {
					// ErrAbortHandler is a deliberate abort, not a failure.
					if err != http.ErrAbortHandler {
						ic.OnException(tok)
					}
					ic.OnRequestEnd(tok, "", http.StatusInternalServerError)
					panic(err)
				}
				ic.OnRequestEnd(tok, "", rw.statusCode)
			}()

			next.ServeHTTP(rw, r.WithContext(metrics.WithToken(r.Context(), tok)))
		})
	}
}

// RouteCapture stores the path template of the matched route on the request
// token. It is installed with router.Use and so runs only for matched
// routes; everything else keeps the empty route and is labelled "unmatched".
func RouteCapture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := metrics.TokenFromContext(r.Context()); tok != nil {
			tok.SetRoute(routeTemplate(r))
		}
		next.ServeHTTP(w, r)
	})
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return tmpl
}

var _ mux.MiddlewareFunc = RouteCapture
