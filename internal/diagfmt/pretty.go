package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

type palette struct {
	err, advisory, code, path, note, fix, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:      color.New(color.FgRed, color.Bold),
		advisory: color.New(color.FgYellow, color.Bold),
		code:     color.New(color.Bold),
		path:     color.New(color.FgCyan),
		note:     color.New(color.FgBlue),
		fix:      color.New(color.FgGreen),
		gutter:   color.New(color.FgHiBlack),
		caret:    color.New(color.FgMagenta, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.advisory, p.code, p.path, p.note, p.fix, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	if s == diag.SevError {
		return p.err
	}
	return p.advisory
}

// Pretty writes the text report. It walks bag.Items() in order, so the bag
// should be sorted first. Each violation is printed as
//
//	<path>:<line>:<col>: <severity> <RuleID>: <message>
//
// followed by the source line with the span underlined, then notes and fixes
// when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	lastFile := source.FileID(0)
	first := true
	for _, d := range bag.Items() {
		file := fs.Get(d.Primary.File)
		if file == nil {
			fmt.Fprintf(w, "%s %s: %s\n", p.severity(d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code), d.Message)
			continue
		}
		path := formatPath(file, fs, opts.PathMode)
		if opts.GroupByFile && (first || d.Primary.File != lastFile) {
			if !first {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s ==\n", p.path.Sprint(path))
		}
		first = false
		lastFile = d.Primary.File

		start, end := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			p.path.Sprint(path), start.Line, start.Col,
			p.severity(d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code), d.Message)
		writeSnippet(w, p, file, start, end, int(opts.Context))

		if opts.ShowNotes {
			for _, n := range d.Notes {
				writeNote(w, p, fs, opts.PathMode, n)
			}
		}
		if opts.ShowFixes {
			for i, f := range d.Fixes {
				writeFix(w, p, fs, opts, i+1, f)
			}
		}
	}
}

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	baseDir := ""
	if mode == PathModeRelative {
		baseDir = fs.BaseDir()
	}
	return f.FormatPath(mode.formatMode(), baseDir)
}

func writeSnippet(w io.Writer, p palette, f *source.File, start, end source.LineCol, context int) {
	if start.Line == 0 {
		return
	}
	width := len(fmt.Sprint(start.Line))
	from := max(int(start.Line)-context, 1)
	for ln := from; ln <= int(start.Line); ln++ {
		text := f.GetLine(uint32(ln)) // #nosec G115 -- bounded by start.Line
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width, ln), text)
	}

	line := f.GetLine(start.Line)
	col := min(int(start.Col)-1, len(line))
	stop := len(line)
	if end.Line == start.Line {
		stop = min(int(end.Col)-1, len(line))
	}
	pad := indentFor(line[:col])
	marks := max(runewidth.StringWidth(line[col:max(stop, col)]), 1)
	underline := "^" + strings.Repeat("~", marks-1)
	fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), pad, p.caret.Sprint(underline))
}

// indentFor returns whitespace covering prefix on screen; tabs are kept so
// the caret lines up with the source.
func indentFor(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}

func writeNote(w io.Writer, p palette, fs *source.FileSet, mode PathMode, n diag.Note) {
	f := fs.Get(n.Span.File)
	if f == nil {
		fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
		return
	}
	pos, _ := fs.Resolve(n.Span)
	fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.note.Sprint("note:"), formatPath(f, fs, mode), pos.Line, pos.Col, n.Msg)
}

func writeFix(w io.Writer, p palette, fs *source.FileSet, opts PrettyOpts, num int, f diag.Fix) {
	header := fmt.Sprintf("fix #%d: %s [%s]", num, f.Title, f.Applicability)
	if f.ID != "" {
		header += " id=" + f.ID
	}
	if f.IsPreferred {
		header += " (preferred)"
	}
	fmt.Fprintf(w, "  %s\n", p.fix.Sprint(header))
	for _, e := range f.Edits {
		file := fs.Get(e.Span.File)
		if file == nil {
			continue
		}
		pos, _ := fs.Resolve(e.Span)
		fmt.Fprintf(w, "    edit %s:%d:%d apply=%q\n", formatPath(file, fs, opts.PathMode), pos.Line, pos.Col, e.NewText)
		if !opts.ShowPreview {
			continue
		}
		preview, err := previewEdit(fs, e)
		if err != nil {
			continue
		}
		fmt.Fprintln(w, "    preview:")
		for _, l := range preview.before {
			fmt.Fprintf(w, "      - %s\n", l)
		}
		for _, l := range preview.after {
			fmt.Fprintf(w, "      + %s\n", l)
		}
	}
}
