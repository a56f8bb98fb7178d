package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"doccheck/internal/diag"
	"doccheck/internal/version"
)

// versionPayload is the --format json output.
type versionPayload struct {
	Tool      string   `json:"tool"`
	Version   string   `json:"version"`
	GoVersion string   `json:"go_version"`
	GitCommit string   `json:"git_commit,omitempty"`
	BuildDate string   `json:"build_date,omitempty"`
	Rules     []string `json:"rules,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show doccheck build information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("hash", false, "include git commit hash")
	versionCmd.Flags().Bool("date", false, "include build timestamp")
	versionCmd.Flags().Bool("full", false, "show all build metadata and the known rules")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	format, _ := flags.GetString("format")
	full, _ := flags.GetBool("full")
	showHash, _ := flags.GetBool("hash")
	showDate, _ := flags.GetBool("date")

	payload := versionPayload{
		Tool:      "doccheck",
		Version:   strings.TrimSpace(version.Version),
		GoVersion: runtime.Version(),
	}
	if payload.Version == "" {
		payload.Version = "dev"
	}
	if showHash || full {
		payload.GitCommit = valueOrUnknown(gitCommit())
	}
	if showDate || full {
		payload.BuildDate = valueOrUnknown(strings.TrimSpace(version.BuildDate))
	}
	if full {
		for _, c := range diag.AllCodes() {
			payload.Rules = append(payload.Rules, c.String())
		}
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "pretty":
		printVersion(out, payload)
		return nil
	}
	return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
}

func printVersion(out io.Writer, p versionPayload) {
	fmt.Fprintf(out, "doccheck %s (%s)\n", version.Colored(), p.GoVersion)
	if p.GitCommit != "" {
		fmt.Fprintf(out, "commit: %s\n", p.GitCommit)
	}
	if p.BuildDate != "" {
		fmt.Fprintf(out, "built:  %s\n", p.BuildDate)
	}
	if len(p.Rules) > 0 {
		fmt.Fprintf(out, "rules:  %s\n", strings.Join(p.Rules, ", "))
	}
}

// gitCommit prefers the linker-provided hash and falls back to the VCS
// stamp of "go build".
func gitCommit() string {
	if c := strings.TrimSpace(version.GitCommit); c != "" {
		return c
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
