package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookshelf-hq/booksapi/pkg/cli"
	"bookshelf-hq/booksapi/pkg/config"
)

var validateFlags struct {
	output string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file, apply defaults and BOOKSAPI_* environment
overrides, and check every field.

With --output json or yaml the effective configuration is printed, which is
useful to see what defaults and overrides resolved to.

Examples:
  # Validate a configuration file
  booksapi validate --config config.yaml

  # Print the effective configuration
  booksapi validate --config config.yaml --output yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format: text, json, yaml")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if format != cli.FormatText {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cfg)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), configSummary{path: cfgFile, cfg: cfg})
}

// configSummary is the text rendering of a validated configuration.
type configSummary struct {
	path string
	cfg  *config.Config
}

func (s configSummary) String() string {
	var b strings.Builder
	source := s.path
	if source == "" {
		source = "(defaults)"
	}

	fmt.Fprintf(&b, "✓ Configuration valid: %s\n", source)
	fmt.Fprintf(&b, "  Listen address: %s\n", s.cfg.Server.ListenAddress)
	fmt.Fprintf(&b, "  Storage:        %s", s.cfg.Storage.Backend)
	if s.cfg.Storage.Backend == "sqlite" {
		fmt.Fprintf(&b, " (%s, driver %s)", s.cfg.Storage.SQLite.Path, s.cfg.Storage.SQLite.Driver)
	}
	b.WriteString("\n")
	if s.cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(&b, "  Metrics:        %s (namespace %s)\n", s.cfg.Telemetry.Metrics.Path, s.cfg.Telemetry.Metrics.Namespace)
	} else {
		b.WriteString("  Metrics:        disabled\n")
	}
	if s.cfg.Telemetry.Tracing.Enabled {
		fmt.Fprintf(&b, "  Tracing:        %s (sampler %s)", s.cfg.Telemetry.Tracing.Endpoint, s.cfg.Telemetry.Tracing.Sampler)
	} else {
		b.WriteString("  Tracing:        disabled")
	}
	return b.String()
}
