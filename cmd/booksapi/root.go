package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bookshelf-hq/booksapi/pkg/cli"
	"bookshelf-hq/booksapi/pkg/config"
)

// Global flags
var cfgFile string

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "booksapi",
		Short: "Books API - the Distant Reading Archive catalogue service",
		Long: `Books API serves a catalogue of science-fiction books over HTTP.

It provides:
  - A JSON REST API for books plus the legacy /api/v2/resources routes
  - Prometheus metrics at /metrics (request counts, latency, in-flight
    requests, exceptions, database operations and the book count)
  - Liveness and readiness probes
  - Optional OpenTelemetry tracing over OTLP/gRPC`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults are used when empty)")
	return cmd
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

// loadConfig loads --config with environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError(err)
	}
	return cfg, nil
}
