package main

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"doccheck/internal/driver"
	"doccheck/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [paths...]",
	Short: "Apply suggested fixes to source units",
	Long: `Run the check, then apply the fixes attached to its violations. By default
the first fix is applied; --all applies every fix that is safe to apply
without review, --id applies one fix by identifier.`,
	RunE: runFix,
}

func init() {
	addRunFlags(fixCmd)
	fixCmd.Flags().Bool("all", false, "apply all safe fixes")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply the fix with this identifier")
	fixCmd.Flags().Bool("dry-run", false, "report the changes without writing files")
	fixCmd.Flags().Bool("diff", false, "print a unified diff of every changed file")
	fixCmd.MarkFlagsMutuallyExclusive("all", "once", "id")
}

type fixOptions struct {
	apply fix.ApplyOptions
	diff  bool
}

func readFixOptions(cmd *cobra.Command) (fixOptions, error) {
	flags := cmd.Flags()
	all, err := flags.GetBool("all")
	if err != nil {
		return fixOptions{}, err
	}
	id, err := flags.GetString("id")
	if err != nil {
		return fixOptions{}, err
	}
	var opts fixOptions
	if opts.apply.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return fixOptions{}, err
	}
	if opts.diff, err = flags.GetBool("diff"); err != nil {
		return fixOptions{}, err
	}
	switch {
	case id != "":
		opts.apply.Mode, opts.apply.TargetID = fix.ApplyModeID, id
	case all:
		opts.apply.Mode = fix.ApplyModeAll
	default:
		opts.apply.Mode = fix.ApplyModeOnce
	}
	return opts, nil
}

func runFix(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	opts, err := readFixOptions(cmd)
	if err != nil {
		return err
	}
	paths := pathsOrCwd(args)
	settings, err := loadSettings(cmd, paths)
	if err != nil {
		return err
	}
	// fixes are applied from a fresh check of the current file contents
	settings.driver.Cache = nil

	result, err := driver.CheckPaths(cmd.Context(), paths, settings.driver)
	if err != nil {
		return fmt.Errorf("fix: check failed: %w", err)
	}

	applyPhase := settings.driver.Timer.Begin("fix")
	res, applyErr := fix.Apply(result.FileSet, result.Bag.Items(), opts.apply)
	settings.driver.Timer.End(applyPhase, "")
	if settings.timings {
		printTimings(cmd.ErrOrStderr(), settings.driver.Timer, settings.driver.Counters)
	}

	out := cmd.OutOrStdout()
	if err := reportApplyResult(out, res, applyErr, opts.apply.DryRun); err != nil {
		return err
	}
	if opts.diff && res != nil {
		return writeDiffs(out, res.FileChanges)
	}
	return nil
}

// reportApplyResult prints what was applied and skipped. A run without any
// applicable fix is not an error.
func reportApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error, dryRun bool) error {
	if res == nil {
		return applyErr
	}
	var b strings.Builder
	verb, updated := "Applied", "Updated files:"
	if dryRun {
		verb, updated = "Would apply", "Would update files:"
	}

	if len(res.Applied) > 0 {
		fmt.Fprintf(&b, "%s %d fix(es):\n", verb, len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(&b, "  %s [%s] %s: %s (%d edits, %s)\n",
				item.Title, item.ID, item.Code, location, item.EditCount, item.Applicability)
		}
	}
	if len(res.FileChanges) > 0 {
		b.WriteString(updated + "\n")
		for _, change := range res.FileChanges {
			fmt.Fprintf(&b, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}
	if len(res.Skipped) > 0 {
		b.WriteString("Skipped fixes:\n")
		for _, skip := range res.Skipped {
			id := cmp.Or(skip.ID, "(unnamed)")
			if skip.Title != "" {
				fmt.Fprintf(&b, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(&b, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}

	switch {
	case errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0:
		b.WriteString("No applicable fixes found.\n")
		applyErr = nil
	case applyErr == nil && len(res.Applied) == 0:
		b.WriteString("No fixes applied.\n")
	}
	if _, err := io.WriteString(out, b.String()); err != nil {
		return err
	}
	return applyErr
}

func writeDiffs(out io.Writer, changes []fix.FileChange) error {
	for _, change := range changes {
		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(change.Before)),
			B:        difflib.SplitLines(string(change.After)),
			FromFile: "a/" + change.Path,
			ToFile:   "b/" + change.Path,
			Context:  3,
		})
		if err != nil {
			return fmt.Errorf("diff %s: %w", change.Path, err)
		}
		if _, err := io.WriteString(out, text); err != nil {
			return err
		}
	}
	return nil
}
