package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"bookshelf-hq/booksapi/pkg/cli"
	"bookshelf-hq/booksapi/pkg/telemetry/health"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

var versionFlags struct {
	output string
}

// versionInfo is the payload of the version command and the /version
// endpoint.
type versionInfo struct {
	health.BuildInfo `yaml:",inline"`
	OS               string `json:"os" yaml:"os"`
	Arch             string `json:"arch" yaml:"arch"`
}

func (v versionInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Books API %s\n", v.Version)
	fmt.Fprintf(&b, "Git Commit: %s\n", v.Commit)
	fmt.Fprintf(&b, "Build Date: %s\n", v.BuildTime)
	fmt.Fprintf(&b, "Go Version: %s\n", v.GoVersion)
	fmt.Fprintf(&b, "OS/Arch: %s/%s", v.OS, v.Arch)
	return b.String()
}

func buildInfo() health.BuildInfo {
	return health.NewBuildInfo(Version, GitCommit, BuildDate)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including Git commit and build date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(versionFlags.output)
		if err != nil {
			return err
		}
		info := versionInfo{BuildInfo: buildInfo(), OS: runtime.GOOS, Arch: runtime.GOARCH}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), info)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVarP(&versionFlags.output, "output", "o", "text", "output format: text, json, yaml")
}
