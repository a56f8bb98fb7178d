package callseq

import (
	"strings"

	"doccheck/internal/source"
)

// Form is the syntactic shape of a call-seq entry.
type Form uint8

const (
	FormCall   Form = iota // recv.method(args)
	FormBare               // method(args), receiver implied
	FormIndex              // recv[args] or recv[args] = value
	FormBinary             // recv op operand
)

// Arg is one documented argument. An argument with a default (or a splat,
// block or "..." argument) may be omitted.
type Arg struct {
	Prefix     string // "*", "**" or "&"
	Name       string
	Keyword    bool // name: default
	Default    string
	HasDefault bool
	Rest       bool // literal "..."
	Span       source.Span
}

// Omittable reports whether callers may leave the argument out.
func (a Arg) Omittable() bool {
	return a.HasDefault || a.Rest || a.Prefix != ""
}

func (a Arg) String() string {
	if a.Rest {
		return "..."
	}
	var b strings.Builder
	b.WriteString(a.Prefix)
	b.WriteString(a.Name)
	switch {
	case a.Keyword:
		b.WriteString(":")
		if a.HasDefault {
			b.WriteString(" ")
			b.WriteString(a.Default)
		}
	case a.HasDefault:
		b.WriteString("=")
		b.WriteString(a.Default)
	}
	return b.String()
}

// Block is the documented block of an entry, "{|x| ... }".
type Block struct {
	Params []string
	Body   []string
	Span   source.Span
}

// Placeholder reports whether the body is the literal "...".
func (b *Block) Placeholder() bool {
	return len(b.Body) == 1 && b.Body[0] == "..."
}

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	if len(b.Params) > 0 {
		sb.WriteString("|")
		sb.WriteString(strings.Join(b.Params, ", "))
		sb.WriteString("|")
	}
	for _, tok := range b.Body {
		sb.WriteString(" ")
		sb.WriteString(tok)
	}
	sb.WriteString(" }")
	return sb.String()
}

// Type is one alternative of the returns list.
type Type struct {
	Name string
	Span source.Span
}

// Entry is one parsed call-seq line.
type Entry struct {
	Receiver string // empty for FormBare
	Method   string
	Form     Form
	Parens   bool
	Args     []Arg
	Assign   *Arg // value of an index or attribute assignment
	Block    *Block
	Returns  []Type
	Span     source.Span
}

// String renders the entry in canonical form. Parsing the result yields an
// equal entry.
func (e *Entry) String() string {
	var b strings.Builder
	switch e.Form {
	case FormCall:
		b.WriteString(e.Receiver)
		b.WriteString(".")
		if e.Assign != nil {
			b.WriteString(strings.TrimSuffix(e.Method, "=") + " = " + e.Assign.String())
			break
		}
		b.WriteString(e.Method)
		if e.Parens {
			b.WriteString("(" + joinArgs(e.Args) + ")")
		}
	case FormBare:
		b.WriteString(e.Method)
		if e.Parens {
			b.WriteString("(" + joinArgs(e.Args) + ")")
		}
	case FormIndex:
		b.WriteString(e.Receiver)
		b.WriteString("[" + joinArgs(e.Args) + "]")
		if e.Assign != nil {
			b.WriteString(" = " + e.Assign.String())
		}
	case FormBinary:
		b.WriteString(e.Receiver + " " + e.Method + " ")
		if len(e.Args) > 0 {
			b.WriteString(e.Args[0].String())
		}
	}
	if e.Block != nil {
		b.WriteString(" ")
		b.WriteString(e.Block.String())
	}
	b.WriteString(" -> ")
	names := make([]string, len(e.Returns))
	for i, t := range e.Returns {
		names[i] = t.Name
	}
	b.WriteString(strings.Join(names, " or "))
	return b.String()
}

func joinArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// sameShape reports whether a and b document the same call apart from
// their argument lists.
func sameShape(a, b *Entry) bool {
	if a.Receiver != b.Receiver || a.Method != b.Method || a.Form != b.Form {
		return false
	}
	if (a.Block == nil) != (b.Block == nil) {
		return false
	}
	if len(a.Returns) != len(b.Returns) {
		return false
	}
	for i := range a.Returns {
		if a.Returns[i].Name != b.Returns[i].Name {
			return false
		}
	}
	return true
}
