package health

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// CheckFunc performs a health check for a component.
// It returns nil if the component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// Status values reported by the probes.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DefaultCheckTimeout bounds a single readiness check when none is configured.
const DefaultCheckTimeout = 5 * time.Second

// CheckResult represents the result of a single health check.
type CheckResult struct {
	// Status is "ok" or "unhealthy"
	Status string `json:"status"`

	// Message carries the check error for unhealthy results
	Message string `json:"message,omitempty"`

	// Duration is how long the check took
	Duration time.Duration `json:"duration_ms,omitempty"`
}

// Report is the body served by the liveness and readiness endpoints.
type Report struct {
	// Status is "ok" for liveness and "ready" or "degraded" for readiness
	Status string `json:"status"`

	// Checks holds per-component results (readiness only)
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Timestamp is when the report was produced
	Timestamp time.Time `json:"timestamp"`
}

// Ready reports whether every component check passed.
func (r Report) Ready() bool {
	return r.Status == StatusOK || r.Status == StatusReady
}

// ErrCheckTimeout is reported when a check does not finish within the timeout.
var ErrCheckTimeout = errors.New("health check timeout")

// Checker runs the readiness checks registered by the service components,
// e.g. the book store ping.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc

	checkTimeout time.Duration
	logger       *slog.Logger
}

// New creates a health checker. A zero timeout selects DefaultCheckTimeout.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout <= 0 {
		checkTimeout = DefaultCheckTimeout
	}

	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
		logger:       slog.Default().With("component", "telemetry.health"),
	}
}

// RegisterCheck registers a check for a named component, replacing any
// previous check with the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// UnregisterCheck removes the check for a named component.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.checks, name)
}

// Checks returns the sorted names of the registered checks.
func (c *Checker) Checks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckLiveness reports that the process is serving requests.
func (c *Checker) CheckLiveness(ctx context.Context) Report {
	return Report{
		Status:    StatusOK,
		Timestamp: time.Now(),
	}
}

// CheckReadiness runs all registered checks concurrently. The report is
// "ready" when every check passed and "degraded" otherwise.
func (c *Checker) CheckReadiness(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := c.runCheck(ctx, check)
			if result.Status != StatusOK {
				c.logger.Warn("Readiness check failed", "check", name, "message", result.Message)
			}

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status != StatusOK {
			status = StatusDegraded
			break
		}
	}

	return Report{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes a single check bounded by the checker timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error(), Duration: time.Since(start)}
		}
		return CheckResult{Status: StatusOK, Duration: time.Since(start)}

	case <-checkCtx.Done():
		return CheckResult{Status: StatusUnhealthy, Message: ErrCheckTimeout.Error(), Duration: time.Since(start)}
	}
}
