package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"doccheck/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "doccheck",
	Short: "Documentation conformance checker for C and Ruby sources",
	Long: `doccheck reads RDoc-style documentation comments in C and Ruby sources
and reports where they break the documentation conventions: call-seq
notation, section order, related-method lists, aliases and auto-links.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRun,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { finishRun(cmd) },
}

// exitError carries a process exit status. It is returned by commands that
// completed normally but must still fail, such as a check with violations.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func init() {
	rootCmd.Version = version.Short()

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(callseqCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of violations to report (0=unlimited)")
	addTraceFlags(rootCmd)
	addProfileFlags(rootCmd)
}

// main executes the root command. Violations at or above the threshold exit
// with status 1; usage and runtime errors exit with status 2.
func main() {
	os.Exit(execute(rootCmd))
}

func execute(root *cobra.Command) int {
	err := root.Execute()
	finishRun(root)
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(root.ErrOrStderr(), "doccheck: %v\n", err)
	return 2
}

// setupRun applies global flags before any subcommand runs.
func setupRun(cmd *cobra.Command, args []string) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := resolveColor(colorFlag, os.Stdout)
	if err != nil {
		return err
	}
	color.NoColor = !useColor

	if err := setupTracing(cmd); err != nil {
		return err
	}
	return setupProfiling(cmd)
}

func resolveColor(value string, out *os.File) (bool, error) {
	switch value {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return isTerminal(out) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// finishRun releases what setupRun acquired. It is idempotent; execute calls
// it again because cobra skips PersistentPostRun when a command fails.
func finishRun(cmd *cobra.Command) {
	stopProfiling(cmd)
	closeTracing(cmd)
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
