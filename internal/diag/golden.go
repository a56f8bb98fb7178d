package diag

import (
	"fmt"
	"path/filepath"
	"strings"

	"doccheck/internal/source"
)

// FormatShortDiagnostics renders violations one per line as
// "<severity> <rule_id> <path>:<line>:<col> <message>". The input order is
// preserved, so callers sort the bag first. Notes are rendered as "note"
// lines following their violation when includeNotes is set.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	var b strings.Builder
	first := true
	line := func(sev, code string, span source.Span, msg string) {
		path, lc, ok := resolveSpan(fs, span)
		if !ok {
			return
		}
		if !first {
			b.WriteByte('\n')
		}
		first = false
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", sev, code, path, lc.Line, lc.Col, sanitizeMessage(msg))
	}

	for _, d := range diags {
		line(d.Severity.String(), d.Code.String(), d.Primary, d.Message)
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			line("note", d.Code.String(), note.Span, note.Msg)
		}
	}
	return b.String()
}

func resolveSpan(fs *source.FileSet, span source.Span) (path string, lc source.LineCol, ok bool) {
	if fs == nil || int(span.File) >= fs.Len() {
		return "", source.LineCol{}, false
	}
	file := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	return normalizePath(file.FormatPath("relative", fs.BaseDir())), start, true
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
