package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"doccheck/internal/callseq"
	"doccheck/internal/diag"
	"doccheck/internal/source"
)

var callseqCmd = &cobra.Command{
	Use:   "callseq [flags] [lines...]",
	Short: "Parse call-seq lines and print them in canonical form",
	Long: `Parse call-seq lines given as arguments, or read from stdin when there are
none, and print each entry in canonical form. Lines that do not follow the
notation and entries that break the call-seq rules are reported on stderr.`,
	Example: `  doccheck callseq 'ary.each {|elem| ... } -> ary'
  printf 'str.center(width) -> new_str\nstr.center(width, pad) -> new_str\n' | \
    doccheck callseq --same-when-omitted pad=" "`,
	RunE: runCallseq,
}

func init() {
	callseqCmd.Flags().StringArray("same-when-omitted", nil,
		"argument that behaves the same when omitted, as NAME or NAME=DEFAULT (repeatable)")
}

func runCallseq(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, "\n")
	name := "<args>"
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text, name = string(data), "<stdin>"
	}
	omitted, err := cmd.Flags().GetStringArray("same-when-omitted")
	if err != nil {
		return fmt.Errorf("failed to get same-when-omitted flag: %w", err)
	}

	bag, entries := checkCallseqText(name, text, omittedHint(omitted))
	for _, e := range entries {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), e.String()); err != nil {
			return err
		}
	}

	if bag.diags.Len() > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), diag.FormatShortDiagnostics(bag.diags.Items(), bag.fs, true))
		if bag.diags.HasErrors() {
			return &exitError{code: 1}
		}
	}
	return nil
}

type callseqReport struct {
	fs    *source.FileSet
	diags *diag.Bag
}

// checkCallseqText parses text as the body of one call-seq section. The
// virtual unit is the first in its set, so entry spans are valid as they are.
func checkCallseqText(name, text string, hint callseq.BehaviorHint) (callseqReport, []*callseq.Entry) {
	fs := source.NewFileSet()
	fs.AddVirtual(name, []byte(text))
	report := callseqReport{fs: fs, diags: diag.NewBag(0)}
	r := diag.BagReporter{Bag: report.diags}

	entries, errs := callseq.Parse(text)
	for _, err := range errs {
		var syntaxErr *callseq.SyntaxError
		if errors.As(err, &syntaxErr) {
			diag.ReportError(r, diag.CallSeqSyntaxError, syntaxErr.Span, syntaxErr.Reason).Emit()
			continue
		}
		diag.ReportError(r, diag.CallSeqSyntaxError, source.Span{}, err.Error()).Emit()
	}
	for _, e := range entries {
		callseq.Check(e, r)
	}
	callseq.ReportRedundant(callseq.FindRedundant(entries, hint), entries, r)

	report.diags.Sort(fs)
	return report, entries
}

// omittedHint turns NAME[=DEFAULT] values into a BehaviorHint; nil when
// there are none.
func omittedHint(values []string) callseq.BehaviorHint {
	if len(values) == 0 {
		return nil
	}
	defaults := make(map[string]string, len(values))
	for _, v := range values {
		name, def, _ := strings.Cut(v, "=")
		defaults[strings.TrimSpace(name)] = def
	}
	return callseq.HintFunc(func(arg string) (string, bool) {
		def, ok := defaults[arg]
		return def, ok
	})
}
