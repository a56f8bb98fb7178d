package callseq

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/alecthomas/participle/v2"

	"doccheck/internal/diag"
	"doccheck/internal/extract"
	"doccheck/internal/fix"
	"doccheck/internal/source"
)

// SyntaxError is a call-seq line that does not follow the notation.
type SyntaxError struct {
	Span   source.Span
	Reason string
}

func (e *SyntaxError) Error() string {
	return e.Reason
}

// ParseLine parses a single call-seq line. Spans are offsets into line.
func ParseLine(line string) (*Entry, error) {
	return parseAt(line, 0, 0)
}

// Parse parses every non-blank line of text. Lines that fail to parse are
// returned as errors in line order; parsing continues with the next line.
func Parse(text string) ([]*Entry, []error) {
	var (
		entries []*Entry
		errs    []error
		offset  int
	)
	for _, line := range strings.Split(text, "\n") {
		start := offset
		offset += len(line) + 1
		lead := len(line) - len(strings.TrimLeft(line, " \t"))
		trimmed := strings.TrimRight(line[lead:], " \t")
		if trimmed == "" {
			continue
		}
		e, err := parseAt(trimmed, 0, off(0, start+lead))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, errs
}

// ParseLines parses the lines of a call-seq section of file. A line that
// does not parse is reported as CallSeqSyntaxError; the other lines are
// still parsed. Parsed entries are checked with Check.
func ParseLines(file source.FileID, lines []extract.Line, r diag.Reporter) []*Entry {
	var out []*Entry
	for _, l := range lines {
		lead := len(l.Text) - len(strings.TrimLeft(l.Text, " \t"))
		text := strings.TrimRight(l.Text[lead:], " \t")
		if text == "" {
			continue
		}
		e, err := parseAt(text, file, off(l.Offset, lead))
		if err != nil {
			var se *SyntaxError
			if errors.As(err, &se) {
				diag.ReportError(r, diag.CallSeqSyntaxError, se.Span, se.Reason).Emit()
			}
			continue
		}
		Check(e, r)
		out = append(out, e)
	}
	return out
}

// Check reports the rules that give an entry its meaning: the block
// placeholder must be "{|x| ... }" and a return of the receiver itself must
// be spelled "self".
func Check(e *Entry, r diag.Reporter) {
	if e.Block != nil && !e.Block.Placeholder() {
		msg := `block body is empty; write it as "{|x| ... }"`
		if len(e.Block.Body) > 0 {
			msg = fmt.Sprintf(`block body must be the literal "...", found %q`, strings.Join(e.Block.Body, " "))
		}
		diag.ReportError(r, diag.BlockPlaceholderError, e.Block.Span, msg).Emit()
	}

	for _, t := range e.Returns {
		if !spellsReceiver(e, t.Name) {
			continue
		}
		diag.ReportError(r, diag.ReceiverNamingError, t.Span,
			fmt.Sprintf("return value %q is the receiver; write it as \"self\"", t.Name)).
			WithFixSuggestion(fix.ReplaceSpan(`replace with "self"`, t.Span, "self", t.Name, fix.Preferred())).
			Emit()
		// One violation per entry, however many alternatives spell the receiver.
		break
	}
}

// spellsReceiver reports whether a return name denotes the receiver itself.
// Class receivers ("Array.new -> Array") name a type, not the object.
func spellsReceiver(e *Entry, name string) bool {
	if name == "receiver" {
		return true
	}
	if e.Receiver == "" || e.Receiver == "self" || !isLowerStart(e.Receiver) {
		return false
	}
	return name == e.Receiver
}

func isLowerStart(s string) bool {
	return s != "" && (s[0] == '_' || (s[0] >= 'a' && s[0] <= 'z'))
}

func parseAt(text string, file source.FileID, base uint32) (*Entry, error) {
	node, err := entryParser.ParseString("", text)
	if err != nil {
		return nil, syntaxError(err, text, file, base)
	}
	return node.toEntry(text, file, base)
}

func syntaxError(err error, text string, file source.FileID, base uint32) error {
	at := 0
	reason := err.Error()
	var perr participle.Error
	if errors.As(err, &perr) {
		at = perr.Position().Offset
		reason = perr.Message()
	}
	at = min(max(at, 0), max(len(text)-1, 0))
	return &SyntaxError{
		Span:   source.Span{File: file, Start: off(base, at), End: off(base, len(text))},
		Reason: "malformed call-seq entry: " + reason,
	}
}

func off(base uint32, n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return base + v
}

type spanner struct {
	file source.FileID
	base uint32
}

func (s spanner) span(start, end int) source.Span {
	return source.Span{File: s.file, Start: off(s.base, start), End: off(s.base, end)}
}

func (n *entryNode) toEntry(text string, file source.FileID, base uint32) (*Entry, error) {
	sp := spanner{file: file, base: base}
	e := &Entry{
		Receiver: n.Receiver,
		Span:     sp.span(n.Pos.Offset, len(text)),
	}
	var args []*argNode
	switch {
	case n.Call != nil:
		e.Form = FormCall
		e.Method = n.Call.Method
		e.Parens = n.Call.Parens
		args = n.Call.Args
		if n.Call.Assign != nil {
			e.Method += "="
			a, err := n.Call.Assign.toArg(sp)
			if err != nil {
				return nil, err
			}
			e.Assign = &a
		}
	case n.Index != nil:
		e.Form = FormIndex
		e.Method = "[]"
		args = n.Index.Args
		if n.Index.Assign != nil {
			e.Method = "[]="
			a, err := n.Index.Assign.toArg(sp)
			if err != nil {
				return nil, err
			}
			e.Assign = &a
		}
	case n.Binary != nil:
		e.Form = FormBinary
		e.Method = n.Binary.Op
		args = []*argNode{n.Binary.Operand}
	default:
		e.Form = FormBare
		e.Method = n.Receiver
		e.Receiver = ""
		if n.Func != nil {
			e.Parens = true
			args = n.Func.Args
		}
	}
	for _, an := range args {
		a, err := an.toArg(sp)
		if err != nil {
			return nil, err
		}
		e.Args = append(e.Args, a)
	}
	if b := n.Block; b != nil {
		block := &Block{Body: b.Body, Span: sp.span(b.Pos.Offset, b.EndPos.Offset)}
		for _, p := range b.Params {
			block.Params = append(block.Params, p.Prefix+p.Name)
		}
		e.Block = block
	}
	for _, t := range n.Returns {
		name := t.Name
		if t.Tuple != nil {
			name = "[" + strings.Join(t.Tuple, ", ") + "]"
		}
		e.Returns = append(e.Returns, Type{Name: name, Span: sp.span(t.Pos.Offset, t.EndPos.Offset)})
	}
	return e, nil
}

func (n *argNode) toArg(sp spanner) (Arg, error) {
	a := Arg{
		Prefix:     n.Prefix,
		Name:       n.Name,
		Rest:       n.Rest,
		Keyword:    n.Sep == ":",
		Default:    n.Default,
		HasDefault: n.Default != "",
		Span:       sp.span(n.Pos.Offset, n.EndPos.Offset),
	}
	switch {
	case n.Sep == "=" && n.Default == "":
		return a, &SyntaxError{Span: a.Span, Reason: fmt.Sprintf("malformed call-seq entry: argument %q has \"=\" but no default", n.Name)}
	case n.Sep == "" && n.Default != "":
		return a, &SyntaxError{Span: a.Span, Reason: fmt.Sprintf("malformed call-seq entry: unexpected %q after argument %q", n.Default, n.Name)}
	}
	return a, nil
}
