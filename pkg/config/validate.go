package config

import (
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/prometheus/common/model"
	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Has reports whether the error contains a failure for field.
func (e ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateCatalogue(&cfg.Catalogue)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}

	durations := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", cfg.ReadTimeout},
		{"server.write_timeout", cfg.WriteTimeout},
		{"server.idle_timeout", cfg.IdleTimeout},
		{"server.shutdown_timeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value < 0 {
			errs = append(errs, FieldError{
				Field:   d.field,
				Message: "timeout must be positive",
			})
		}
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
		return errs
	case "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid storage backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
		return errs
	}

	if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.driver",
			Message: fmt.Sprintf("invalid sqlite driver %q: must be 'sqlite' or 'sqlite3'", cfg.SQLite.Driver),
		})
	}
	if cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.path",
			Message: "sqlite path is required",
		})
	}
	if cfg.SQLite.MaxOpenConns < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.max_open_conns",
			Message: "max open connections must be non-negative",
		})
	}
	if cfg.SQLite.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.max_idle_conns",
			Message: "max idle connections must be non-negative",
		})
	}
	if cfg.SQLite.MaxOpenConns > 0 && cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.max_idle_conns",
			Message: "max idle connections cannot exceed max open connections",
		})
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.busy_timeout",
			Message: "busy timeout must be positive",
		})
	}

	return errs
}

func validateCatalogue(cfg *CatalogueConfig) []FieldError {
	var errs []FieldError

	if !cfg.RefreshEnabled {
		return errs
	}
	if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "catalogue.refresh_schedule",
			Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.RefreshSchedule, err),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	errs = append(errs, validateMetrics(&cfg.Metrics)...)

	// Validate tracing configuration
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	// Validate health check configuration
	if cfg.Health.Enabled {
		if !strings.HasPrefix(cfg.Health.LivenessPath, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.liveness_path",
				Message: "liveness path must start with /",
			})
		}
		if !strings.HasPrefix(cfg.Health.ReadinessPath, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path must start with /",
			})
		}
		if cfg.Health.CheckTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
		if cfg.Health.CheckTimeout > 60*time.Second {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout exceeds reasonable limit (60s)",
			})
		}
	}

	return errs
}

func validateMetrics(cfg *MetricsConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if !strings.HasPrefix(cfg.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	if !model.IsValidLegacyMetricName(cfg.Namespace) {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: fmt.Sprintf("invalid namespace %q: not a valid metric name prefix", cfg.Namespace),
		})
	}
	for i, b := range cfg.RequestDurationBuckets {
		if math.IsNaN(b) || (i > 0 && b <= cfg.RequestDurationBuckets[i-1]) {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.request_duration_buckets",
				Message: "buckets must be strictly ascending",
			})
			break
		}
	}

	return errs
}
