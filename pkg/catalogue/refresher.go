package catalogue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher periodically republishes books_count so rows written to the
// database by other processes show up in the gauge.
type Refresher struct {
	service  *Service
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewRefresher creates a refresher running on a standard cron schedule,
// e.g. "@every 1m" or "*/5 * * * *".
func NewRefresher(service *Service, schedule string) *Refresher {
	return &Refresher{
		service:  service,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "catalogue.refresher"),
	}
}

// Start refreshes once and schedules further refreshes until ctx is done
// or Stop is called. An empty schedule disables the refresher.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}
	if r.schedule == "" {
		r.logger.Info("refresh schedule not configured, skipping refresher")
		return nil
	}

	sched, err := cron.ParseStandard(r.schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.schedule, err)
	}

	r.cron.Schedule(sched, cron.FuncJob(func() {
		r.refresh(ctx)
	}))
	r.refresh(ctx)

	r.cron.Start()
	r.running = true
	r.logger.Info("books count refresher started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

func (r *Refresher) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := r.service.SyncCount(ctx)
	if err != nil {
		r.logger.Error("books count refresh failed", "error", err)
		return
	}
	r.logger.Debug("books count refreshed", "books", n)
}

// Stop stops the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		<-r.cron.Stop().Done()
		r.running = false
		r.logger.Info("books count refresher stopped")
	}
}

// IsRunning returns true if the refresher is scheduled.
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.running
}

// NextRun returns the next scheduled refresh, or nil when not running.
func (r *Refresher) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	if !r.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
