package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "BOOKSAPI_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention BOOKSAPI_SECTION_FIELD (e.g., BOOKSAPI_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Start from default values
// 2. Decode YAML from file over them
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the file at path with environment overrides. An empty
// path yields the defaults, still subject to environment overrides.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return LoadConfigWithEnvOverrides(path)
	}

	cfg := Default()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration over the defaults. Unknown fields are
// rejected so typos do not silently fall back to defaults. The result is not
// validated.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed values are ignored and the file value is kept.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)

	// Storage overrides
	envString("STORAGE_BACKEND", &cfg.Storage.Backend)
	envBool("STORAGE_SEED", &cfg.Storage.Seed)
	envString("STORAGE_SQLITE_DRIVER", &cfg.Storage.SQLite.Driver)
	envString("STORAGE_SQLITE_PATH", &cfg.Storage.SQLite.Path)
	envBool("STORAGE_SQLITE_WAL_MODE", &cfg.Storage.SQLite.WALMode)
	envDuration("STORAGE_SQLITE_BUSY_TIMEOUT", &cfg.Storage.SQLite.BusyTimeout)

	// Catalogue overrides
	envBool("CATALOGUE_REFRESH_ENABLED", &cfg.Catalogue.RefreshEnabled)
	envString("CATALOGUE_REFRESH_SCHEDULE", &cfg.Catalogue.RefreshSchedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envString("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	envBool("TELEMETRY_METRICS_RUNTIME_METRICS", &cfg.Telemetry.Metrics.RuntimeMetrics)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envBool("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	envString("TELEMETRY_TRACING_SERVICE_NAME", &cfg.Telemetry.Tracing.ServiceName)
}

func lookupEnv(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	return val, val != ""
}

func envString(key string, dst *string) {
	if val, ok := lookupEnv(key); ok {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val, ok := lookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val, ok := lookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(key string, dst *float64) {
	if val, ok := lookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val, ok := lookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
