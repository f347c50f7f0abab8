package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{"default timeout", 0, DefaultCheckTimeout},
		{"negative timeout", -time.Second, DefaultCheckTimeout},
		{"custom timeout", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)
			if checker.checkTimeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, checker.checkTimeout)
			}
			if len(checker.Checks()) != 0 {
				t.Errorf("expected no checks, got %v", checker.Checks())
			}
		})
	}
}

func TestRegisterCheck(t *testing.T) {
	checker := New(time.Second)

	checker.RegisterCheck("storage", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("catalogue", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("storage", func(ctx context.Context) error { return errors.New("replaced") })

	names := checker.Checks()
	if len(names) != 2 || names[0] != "catalogue" || names[1] != "storage" {
		t.Fatalf("unexpected checks %v", names)
	}

	report := checker.CheckReadiness(context.Background())
	if report.Checks["storage"].Message != "replaced" {
		t.Errorf("expected the replacing check to run, got %+v", report.Checks["storage"])
	}

	checker.UnregisterCheck("storage")
	if len(checker.Checks()) != 1 {
		t.Errorf("expected 1 check after unregister, got %v", checker.Checks())
	}
}

func TestCheckLiveness(t *testing.T) {
	report := New(0).CheckLiveness(context.Background())
	if report.Status != StatusOK {
		t.Errorf("expected status ok, got %s", report.Status)
	}
	if report.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		unhealthy  []string
	}{
		{
			name:       "no checks",
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"storage": func(ctx context.Context) error { return nil },
				"config":  func(ctx context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one unhealthy",
			checks: map[string]CheckFunc{
				"storage": func(ctx context.Context) error { return errors.New("database is locked") },
				"config":  func(ctx context.Context) error { return nil },
			},
			wantStatus: StatusDegraded,
			unhealthy:  []string{"storage"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			report := checker.CheckReadiness(context.Background())
			if report.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", report.Status, tt.wantStatus)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("expected %d results, got %d", len(tt.checks), len(report.Checks))
			}
			for _, name := range tt.unhealthy {
				if report.Checks[name].Status != StatusUnhealthy {
					t.Errorf("expected %s unhealthy, got %+v", name, report.Checks[name])
				}
			}
		})
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	report := checker.CheckReadiness(context.Background())
	if report.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
	if report.Checks["slow"].Status != StatusUnhealthy {
		t.Errorf("expected slow check unhealthy, got %+v", report.Checks["slow"])
	}
}

func TestCheckReadiness_Concurrent(t *testing.T) {
	checker := New(time.Second)
	var running, peak atomic.Int32
	for _, name := range []string{"a", "b", "c"} {
		checker.RegisterCheck(name, func(ctx context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}

	checker.CheckReadiness(context.Background())
	if peak.Load() < 2 {
		t.Errorf("expected checks to overlap, peak concurrency %d", peak.Load())
	}
}

func TestHandlers(t *testing.T) {
	checker := New(time.Second)
	healthy := true
	checker.RegisterCheck("storage", func(ctx context.Context) error {
		if !healthy {
			return errors.New("closed")
		}
		return nil
	})

	router := mux.NewRouter()
	checker.Register(router, Paths{Liveness: "/health", Readiness: "/ready", Version: "/version"},
		NewBuildInfo("1.2.3", "abc123", "2026-10-18"))

	tests := []struct {
		name       string
		method     string
		path       string
		healthy    bool
		wantCode   int
		wantStatus string
	}{
		{"liveness", http.MethodGet, "/health", true, http.StatusOK, StatusOK},
		{"liveness while degraded", http.MethodGet, "/health", false, http.StatusOK, StatusOK},
		{"readiness ready", http.MethodGet, "/ready", true, http.StatusOK, StatusReady},
		{"readiness degraded", http.MethodGet, "/ready", false, http.StatusServiceUnavailable, StatusDegraded},
		{"head readiness", http.MethodHead, "/ready", true, http.StatusOK, ""},
		{"post liveness", http.MethodPost, "/health", true, http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			healthy = tt.healthy
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantStatus == "" {
				if tt.method == http.MethodHead && rec.Body.Len() != 0 {
					t.Errorf("expected empty HEAD body, got %q", rec.Body.String())
				}
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var report Report
			if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if report.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", report.Status, tt.wantStatus)
			}
		})
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler(NewBuildInfo("1.2.3", "abc123", "2026-10-18")).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info BuildInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("unexpected build info %+v", info)
	}
}

func TestRegister_SkipsEmptyPaths(t *testing.T) {
	router := mux.NewRouter()
	New(0).Register(router, Paths{Liveness: "/healthz"}, BuildInfo{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unmounted readiness, got %d", rec.Code)
	}
}
