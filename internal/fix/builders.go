package fix

import (
	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// Option adjusts a fix while it is built.
type Option func(*diag.Fix)

// WithApplicability overrides the default AlwaysSafe.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) { f.Applicability = app }
}

// Preferred marks the fix as the one to pick among alternatives.
func Preferred() Option {
	return func(f *diag.Fix) { f.IsPreferred = true }
}

// WithID sets a stable identifier usable with "doccheck fix --id".
func WithID(id string) Option {
	return func(f *diag.Fix) { f.ID = id }
}

func build(title string, app diag.FixApplicability, edits []diag.TextEdit, opts []Option) diag.Fix {
	f := diag.Fix{Title: title, Applicability: app, Edits: edits}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// ReplaceSpan replaces the text under span with newText. When expect is not
// empty the fix only applies while the span still holds exactly that text.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	edit := diag.TextEdit{Span: span, NewText: newText, OldText: expect}
	return build(title, diag.FixApplicabilityAlwaysSafe, []diag.TextEdit{edit}, opts)
}

// EscapeRefs puts a backslash in front of each reference so RDoc prints the
// name verbatim instead of linking it. Whether a reference should stay a link
// is a judgement call, so the fix is marked SafeWithHeuristics.
func EscapeRefs(title string, refs []source.Span, opts ...Option) diag.Fix {
	edits := make([]diag.TextEdit, 0, len(refs))
	for _, ref := range refs {
		edits = append(edits, diag.TextEdit{
			Span:    source.Span{File: ref.File, Start: ref.Start, End: ref.Start},
			NewText: `\`,
		})
	}
	return build(title, diag.FixApplicabilitySafeWithHeuristics, edits, opts)
}
