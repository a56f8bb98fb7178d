package rules

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/runenames"

	"doccheck/internal/diag"
	"doccheck/internal/fix"
	"doccheck/internal/source"
)

// asciiReplacements are the spellings offered for characters that commonly
// slip into documentation from word processors.
var asciiReplacements = map[rune]string{
	'\u00a0': " ",
	'\u2018': "'",
	'\u2019': "'",
	'\u201c': `"`,
	'\u201d': `"`,
	'\u2013': "-",
	'\u2014': "--",
	'\u2026': "...",
	'\u2192': "->",
}

// Charset restricts comments to US-ASCII. Sources written in C must be
// ASCII; in Ruby sources the violation is advisory. Each line is reported
// at most once, at its first offending character.
type Charset struct{}

func (Charset) Name() string { return "charset" }

func (Charset) Check(ctx *Context, doc *Doc, r diag.Reporter) {
	e := doc.Entity
	sev := diag.SevAdvisory
	if e.Lang == source.LangC {
		sev = diag.SevError
	}
	for _, line := range e.Comment.Lines {
		for i, ch := range line.Text {
			if ch < utf8.RuneSelf {
				continue
			}
			_, width := utf8.DecodeRuneInString(line.Text[i:])
			start := line.Offset + uint32(i) // #nosec G115 -- bounded by the line length
			end := start + uint32(width)     // #nosec G115
			sp := source.Span{File: e.Comment.Span.File, Start: start, End: end}
			b := diag.NewReportBuilder(r, sev, diag.NonASCIIComment, sp,
				fmt.Sprintf("comment of %s contains %s", e.FullName(), describeRune(ch)))
			if repl, ok := asciiReplacements[ch]; ok {
				b = b.WithFixSuggestion(fix.ReplaceSpan(fmt.Sprintf("replace with %q", repl), sp, repl, string(ch), fix.Preferred()))
			}
			b.Emit()
			break
		}
	}
}

func describeRune(ch rune) string {
	if ch == utf8.RuneError {
		return "an invalid UTF-8 byte"
	}
	name := runenames.Name(ch)
	if name == "" {
		return fmt.Sprintf("U+%04X", ch)
	}
	return fmt.Sprintf("U+%04X %s", ch, name)
}
