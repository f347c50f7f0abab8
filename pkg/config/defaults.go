package config

import (
	"slices"
	"time"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:5000"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = 1048576 // 1MB

	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultStorageSeed        = true
	DefaultSQLiteDriver       = "sqlite"
	DefaultSQLitePath         = "db/books.db"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Catalogue defaults
	DefaultRefreshEnabled  = true
	DefaultRefreshSchedule = "@every 1m"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "books_api"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingServiceName = "books-api"
	DefaultHealthEnabled      = true
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultRequestDurationBuckets covers sub-millisecond handlers up to
// multi-second requests.
var DefaultRequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Default returns a configuration with every field set to its default.
//
// Loading starts from Default and decodes the YAML file over it, so boolean
// fields that default to true keep that value unless the file sets them.
func Default() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			Seed: DefaultStorageSeed,
			SQLite: SQLiteConfig{
				WALMode: DefaultSQLiteWALMode,
			},
		},
		Catalogue: CatalogueConfig{
			RefreshEnabled: DefaultRefreshEnabled,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{Enabled: DefaultTracingEnabled},
			Health:  HealthConfig{Enabled: DefaultHealthEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLite.Driver == "" {
		cfg.Storage.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Catalogue defaults
	if cfg.Catalogue.RefreshSchedule == "" {
		cfg.Catalogue.RefreshSchedule = DefaultRefreshSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = slices.Clone(DefaultRequestDurationBuckets)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
