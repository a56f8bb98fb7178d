package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"doccheck/internal/diag"
	"doccheck/internal/diagfmt"
	"doccheck/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [paths...]",
	Short: "Check the documentation comments of source units",
	Long: `Check every C and Ruby source unit named on the command line. Directories
are walked recursively. The exit status is 1 when a violation at or above
the severity threshold is found.`,
	RunE: runCheck,
}

type reportFormat string

const (
	formatText  reportFormat = "text"
	formatShort reportFormat = "short"
	formatJSON  reportFormat = "json"
	formatSarif reportFormat = "sarif"
)

func readFormat(value string) (reportFormat, error) {
	switch f := reportFormat(strings.ToLower(strings.TrimSpace(value))); f {
	case formatText, formatShort, formatJSON, formatSarif:
		return f, nil
	case "pretty":
		return formatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected text|short|json|sarif)", value)
	}
}

func init() {
	addRunFlags(checkCmd)
	checkCmd.Flags().String("severity-threshold", "error", "lowest severity that fails the run (error|advisory)")
	checkCmd.Flags().String("format", "text", "output format (text|short|json|sarif)")
	checkCmd.Flags().Bool("with-notes", false, "include notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("preview", false, "show the source lines each fix would produce")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().String("ui", "auto", "progress display (auto|on|off)")
}

// reportOptions are the check flags that shape the report.
type reportOptions struct {
	format    reportFormat
	withNotes bool
	suggest   bool
	preview   bool
	pathMode  diagfmt.PathMode
	ui        uiMode
}

func readReportOptions(cmd *cobra.Command) (reportOptions, error) {
	var (
		opts reportOptions
		err  error
	)
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	if opts.format, err = readFormat(formatStr); err != nil {
		return opts, err
	}
	if opts.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if opts.suggest, err = cmd.Flags().GetBool("suggest"); err != nil {
		return opts, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if opts.preview, err = cmd.Flags().GetBool("preview"); err != nil {
		return opts, fmt.Errorf("failed to get preview flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return opts, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	opts.pathMode = diagfmt.PathModeAuto
	if fullPath {
		opts.pathMode = diagfmt.PathModeAbsolute
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiStr); err != nil {
		return opts, err
	}
	return opts, nil
}

// runCheck executes the "check" command: it resolves the configuration,
// checks every unit, writes the report in the chosen format and fails when
// a violation reaches the threshold.
func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	paths := pathsOrCwd(args)
	report, err := readReportOptions(cmd)
	if err != nil {
		return err
	}
	settings, err := loadSettings(cmd, paths)
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to get timeout flag: %w", err)
	}

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var result *driver.Result
	if shouldUseTUI(report.ui, report.format, settings.quiet) {
		result, err = runCheckWithUI(ctx, "doccheck "+strings.Join(paths, " "), paths, settings.driver)
	} else {
		result, err = driver.CheckPaths(ctx, paths, settings.driver)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reportPhase := settings.driver.Timer.Begin("report")
	if err := writeReport(out, result, report, cmd.Root().Version); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	settings.driver.Timer.End(reportPhase, string(report.format))

	errOut := cmd.ErrOrStderr()
	if !settings.quiet && report.format == formatText {
		writeSummary(errOut, result)
	}
	if settings.timings {
		printTimings(errOut, settings.driver.Timer, settings.driver.Counters)
	}

	if failed(result, settings.threshold) {
		return &exitError{code: 1}
	}
	return nil
}

func writeReport(out io.Writer, result *driver.Result, opts reportOptions, toolVersion string) error {
	switch opts.format {
	case formatText:
		diagfmt.Pretty(out, result.Bag, result.FileSet, diagfmt.PrettyOpts{
			Color:       !color.NoColor,
			Context:     0,
			PathMode:    opts.pathMode,
			GroupByFile: true,
			ShowNotes:   opts.withNotes,
			ShowFixes:   opts.suggest || opts.preview,
			ShowPreview: opts.preview,
		})
		return nil
	case formatShort:
		output := diag.FormatShortDiagnostics(result.Bag.Items(), result.FileSet, opts.withNotes)
		if output == "" {
			return nil
		}
		_, err := fmt.Fprintln(out, output)
		return err
	case formatJSON:
		return diagfmt.JSON(out, result.Bag, result.FileSet, diagfmt.JSONOpts{
			PathMode:        opts.pathMode,
			IncludeNotes:    opts.withNotes,
			IncludeFixes:    opts.suggest || opts.preview,
			IncludePreviews: opts.preview,
		})
	case formatSarif:
		return diagfmt.Sarif(out, result.Bag, result.FileSet, diagfmt.SarifRunMeta{
			ToolName:       "doccheck",
			ToolVersion:    toolVersion,
			InvocationArgs: os.Args[1:],
			PathMode:       opts.pathMode,
		})
	default:
		return fmt.Errorf("unknown format: %s", opts.format)
	}
}

func writeSummary(out io.Writer, result *driver.Result) {
	var errs, advisories int
	for _, d := range result.Bag.Items() {
		if d.Severity == diag.SevError {
			errs++
		} else {
			advisories++
		}
	}
	if errs+advisories == 0 {
		fmt.Fprintf(out, "%d units checked, no violations\n", len(result.Units))
		return
	}
	fmt.Fprintf(out, "%d units checked: %s, %s\n", len(result.Units),
		plural(errs, "error"), plural(advisories, "advisory"))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(noun, "y"))
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// failed reports whether any unit has a violation at or above threshold.
// Unit bags are consulted because the merged report may be truncated.
func failed(result *driver.Result, threshold diag.Severity) bool {
	for _, u := range result.Units {
		if u.Bag != nil && u.Bag.HasAtLeast(threshold) {
			return true
		}
	}
	return result.Bag.HasAtLeast(threshold)
}
