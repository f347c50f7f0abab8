// Package server assembles the Books API HTTP server.
//
// The server owns the gorilla/mux router, mounts the book, legacy, health
// and metrics routes, and wraps the router in the middleware chain:
//
//	RequestID → Logging → Recovery → Metrics → Tracing → router
//
// RouteCapture runs inside the router (router.Use) so the metrics endpoint
// label is the matched path template, e.g. "books/{id}". Requests that match
// no route keep the "unmatched" label.
//
// # Usage
//
//	srv, err := server.New(cfg, server.Deps{
//	    Service: svc,
//	    Metrics: interceptor,
//	    Tracer:  tracer,
//	    Health:  checker,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx) // returns after ctx is canceled and shutdown completes
package server
