package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"bookshelf-hq/booksapi/pkg/api/handlers"
	"bookshelf-hq/booksapi/pkg/api/middleware"
	"bookshelf-hq/booksapi/pkg/catalogue"
	"bookshelf-hq/booksapi/pkg/config"
	"bookshelf-hq/booksapi/pkg/telemetry/health"
	"bookshelf-hq/booksapi/pkg/telemetry/metrics"
	"bookshelf-hq/booksapi/pkg/telemetry/tracing"
)

// VersionPath is where build information is served when health endpoints
// are enabled.
const VersionPath = "/version"

// Deps are the collaborators the server routes requests to.
type Deps struct {
	// Service is the book catalogue. Required.
	Service *catalogue.Service

	// Metrics records request metrics. Nil disables the metrics
	// middleware and the scrape endpoint.
	Metrics *metrics.Interceptor

	// Tracer starts a span per request. Nil or disabled skips tracing.
	Tracer *tracing.Tracer

	// Health serves the probes. Nil disables them.
	Health *health.Checker

	// Build is reported on the version endpoint.
	Build health.BuildInfo

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is the Books API HTTP server.
type Server struct {
	config     *config.Config
	deps       Deps
	logger     *slog.Logger
	handler    http.Handler
	httpServer *http.Server

	mu           sync.RWMutex
	listener     net.Listener
	isRunning    bool
	shutdownOnce sync.Once
}

// New builds the router and middleware chain for cfg.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}
	if deps.Service == nil {
		return nil, errors.New("server: nil catalogue service")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		logger: deps.Logger.With("component", "server"),
	}
	s.handler = s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:           cfg.Server.ListenAddress,
		Handler:        s.handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(deps.Logger.Handler(), slog.LevelError),
	}
	return s, nil
}

// Start listens on the configured address and serves until ctx is
// canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	ln, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.ListenAddress, err)
	}
	s.listener = ln
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting books API server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		s.setStopped()
		return err
	}
}

// Shutdown stops accepting connections and waits up to
// server.shutdown_timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if !s.IsRunning() {
			return
		}

		timeout := s.config.Server.ShutdownTimeout
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.setStopped()
		s.logger.Info("books API server stopped")
	})

	return shutdownErr
}

func (s *Server) setStopped() {
	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}

// IsRunning reports whether Start is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures the router and the middleware chain. From outer to
// inner: RequestID, Logging, Recovery, Metrics, Tracing, router.
func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
	router.Use(middleware.RouteCapture)

	var exceptions handlers.ExceptionRecorder
	if s.deps.Metrics != nil {
		exceptions = s.deps.Metrics
	}
	books := handlers.NewBooksHandler(s.deps.Service, exceptions, s.config.Server.MaxBodyBytes)
	books.Register(router)

	hc := s.config.Telemetry.Health
	if s.deps.Health != nil && hc.Enabled {
		s.deps.Health.Register(router, health.Paths{
			Liveness:  hc.LivenessPath,
			Readiness: hc.ReadinessPath,
			Version:   VersionPath,
		}, s.deps.Build)
	}

	mc := s.config.Telemetry.Metrics
	if s.deps.Metrics != nil && mc.Enabled {
		// No method matcher: the scrape handler answers 405 itself.
		router.Handle(mc.Path, metrics.HandlerFor(s.deps.Metrics.Registry(), metrics.HandlerOptions{
			RuntimeMetrics: mc.RuntimeMetrics,
			ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
		})).Name("metrics")
	}

	var handler http.Handler = router
	handler = middleware.Tracing(s.deps.Tracer)(handler)
	if s.deps.Metrics != nil {
		handler = middleware.Metrics(s.deps.Metrics)(handler)
	}
	handler = middleware.Recovery(s.deps.Logger)(handler)
	handler = middleware.Logging(s.deps.Logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
