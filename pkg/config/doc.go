// Package config provides configuration management for the Books API.
//
// This package handles loading, validating, and watching configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("config.yaml")                 // file only
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml") // file + env
//	cfg, err := config.LoadOrDefault("")                         // defaults + env
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention BOOKSAPI_SECTION_FIELD.
// For example:
//
//   - BOOKSAPI_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - BOOKSAPI_STORAGE_SQLITE_PATH overrides storage.sqlite.path
//   - BOOKSAPI_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// A Watcher reloads the file when it changes and hands the new
// configuration to a callback. Only settings that are safe to change at
// runtime (the log level) are applied by the service; everything else
// requires a restart.
package config
