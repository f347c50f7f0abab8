package config

import "time"

// Config is the root configuration structure for the Books API service.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and request limits.
	Server ServerConfig `yaml:"server"`

	// Storage selects and configures the catalogue storage backend.
	Storage StorageConfig `yaml:"storage"`

	// Catalogue contains catalogue maintenance settings.
	Catalogue CatalogueConfig `yaml:"catalogue"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing, and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:5000", "0.0.0.0:5000").
	// Default: "0.0.0.0:5000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of JSON request bodies.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// StorageConfig contains catalogue storage configuration.
type StorageConfig struct {
	// Backend selects the storage implementation.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Seed inserts a handful of sample books when the catalogue is empty.
	// Default: true
	Seed bool `yaml:"seed"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Driver is the database/sql driver name.
	// Options: "sqlite" (pure Go, modernc.org/sqlite), "sqlite3" (cgo, mattn/go-sqlite3)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the file path for the SQLite database. ":memory:" keeps the
	// database in memory.
	// Default: "db/books.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// CatalogueConfig contains catalogue maintenance configuration.
type CatalogueConfig struct {
	// RefreshEnabled runs a background job that re-reads the catalogue size
	// and updates the books_count gauge, so edits made outside the API are
	// reflected.
	// Default: true
	RefreshEnabled bool `yaml:"refresh_enabled"`

	// RefreshSchedule is the cron expression of the refresh job.
	// Default: "@every 1m"
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit. It can be changed at runtime
	// when the configuration file is watched.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether request metrics are recorded and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the scrape endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "books_api"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`

	// RuntimeMetrics adds Go runtime and process metrics to the scrape.
	// Default: false
	RuntimeMetrics bool `yaml:"runtime_metrics"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is the service name in traces.
	// Default: "books-api"
	ServiceName string `yaml:"service_name"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
