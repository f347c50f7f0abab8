package catalogue

import (
	"context"
	"log/slog"

	"bookshelf-hq/booksapi/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Recorder receives the storage metrics of the catalogue.
// *metrics.Interceptor implements it.
type Recorder interface {
	RecordDBOperation(operation string)
	SetGaugeValue(name string, value float64) error
}

// BooksCountGauge is the gauge kept equal to the number of stored books.
const BooksCountGauge = "books_count"

// Service is the catalogue used by the HTTP handlers. It validates input,
// counts every storage call and keeps the books_count gauge in step with the
// store after each mutation.
type Service struct {
	store   Store
	rec     Recorder
	backend string
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewService wraps store. backend names the store in spans and logs,
// e.g. "sqlite". A nil rec disables metrics.
func NewService(store Store, rec Recorder, backend string) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		store:   store,
		rec:     rec,
		backend: backend,
		tracer:  otel.Tracer(tracing.InstrumentationName + "/catalogue"),
		logger:  slog.Default().With("component", "catalogue"),
	}
}

// start opens a storage span and counts the operation. Operations are
// counted when attempted, failed calls included.
func (s *Service) start(ctx context.Context, name, op string) (context.Context, trace.Span) {
	s.rec.RecordDBOperation(op)
	ctx, span := s.tracer.Start(ctx, "catalogue."+name)
	tracing.SetDBOperation(span, s.backend, op)
	return ctx, span
}

// List returns every book.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	ctx, span := s.start(ctx, "List", OpSelect)
	defer span.End()

	books, err := s.store.List(ctx)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}
	return books, nil
}

// Get returns the book with the given ID.
func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	ctx, span := s.start(ctx, "Get", OpSelect)
	defer span.End()
	tracing.SetBookID(span, id)

	b, err := s.store.Get(ctx, id)
	if err != nil {
		tracing.SetError(span, err)
		return Book{}, err
	}
	return b, nil
}

// Find returns the books matching f. An empty filter matches every book.
func (s *Service) Find(ctx context.Context, f Filter) ([]Book, error) {
	ctx, span := s.start(ctx, "Find", OpSelect)
	defer span.End()

	books, err := s.store.Find(ctx, f)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}
	return books, nil
}

// Create validates and stores b, returning it with its new ID.
func (s *Service) Create(ctx context.Context, b Book) (Book, error) {
	if err := b.Validate(); err != nil {
		return Book{}, err
	}

	ctx, span := s.start(ctx, "Create", OpInsert)
	defer span.End()

	created, err := s.store.Create(ctx, b)
	if err != nil {
		tracing.SetError(span, err)
		return Book{}, err
	}
	tracing.SetBookID(span, created.ID)

	s.logger.Info("Book created", "id", created.ID, "title", created.Title)
	s.syncAfterMutation(ctx)
	return created, nil
}

// Update validates b and replaces the stored book with the same ID.
func (s *Service) Update(ctx context.Context, b Book) (Book, error) {
	if err := b.Validate(); err != nil {
		return Book{}, err
	}

	ctx, span := s.start(ctx, "Update", OpUpdate)
	defer span.End()
	tracing.SetBookID(span, b.ID)

	updated, err := s.store.Update(ctx, b)
	if err != nil {
		tracing.SetError(span, err)
		return Book{}, err
	}

	s.logger.Info("Book updated", "id", updated.ID)
	s.syncAfterMutation(ctx)
	return updated, nil
}

// Delete removes the book with the given ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := s.start(ctx, "Delete", OpDelete)
	defer span.End()
	tracing.SetBookID(span, id)

	if err := s.store.Delete(ctx, id); err != nil {
		tracing.SetError(span, err)
		return err
	}

	s.logger.Info("Book deleted", "id", id)
	s.syncAfterMutation(ctx)
	return nil
}

// Count returns the number of stored books.
func (s *Service) Count(ctx context.Context) (int, error) {
	ctx, span := s.start(ctx, "Count", OpCount)
	defer span.End()

	n, err := s.store.Count(ctx)
	if err != nil {
		tracing.SetError(span, err)
		return 0, err
	}
	return n, nil
}

// SyncCount reads the number of books and publishes it as books_count.
func (s *Service) SyncCount(ctx context.Context) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.rec.SetGaugeValue(BooksCountGauge, float64(n)); err != nil {
		return n, err
	}
	return n, nil
}

// syncAfterMutation refreshes the gauge. The mutation already succeeded, so
// a failure here is logged and left to the next refresh.
func (s *Service) syncAfterMutation(ctx context.Context) {
	if _, err := s.SyncCount(ctx); err != nil {
		s.logger.Warn("failed to refresh books count", "error", err)
	}
}

// Ping checks the store, for readiness probes.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

type nopRecorder struct{}

func (nopRecorder) RecordDBOperation(string) {}

func (nopRecorder) SetGaugeValue(string, float64) error { return nil }
