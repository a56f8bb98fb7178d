package extract

import (
	"strings"

	"doccheck/internal/source"
)

// Kind is the declaration kind of a documented entity.
type Kind uint8

const (
	KindClass Kind = iota + 1
	KindModule
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindModule:
		return "module"
	case KindMethod:
		return "method"
	}
	return "unknown"
}

// Entity is a documented declaration. It is never mutated after extraction.
type Entity struct {
	Kind      Kind
	Name      string
	Owner     string // enclosing class or module, empty at top level
	Singleton bool   // class-level method
	Lang      source.Language
	Decl      source.Span
	Comment   *CommentBlock // never nil
	Aliases   []string      // further names bound to the same C function
	NoDoc     bool          // marked :nodoc:
}

// FullName renders the entity the way documentation refers to it:
// "Array", "Array#count", "File.join".
func (e *Entity) FullName() string {
	if e.Kind != KindMethod || e.Owner == "" {
		return e.Name
	}
	if e.Singleton {
		return e.Owner + "." + e.Name
	}
	return e.Owner + "#" + e.Name
}

// Line is one marker-stripped comment line. Offset is the byte offset of
// Text[0] in the unit.
type Line struct {
	Text   string
	Offset uint32
}

// End returns the offset just past the line text.
func (l Line) End() uint32 {
	return l.Offset + uint32(len(l.Text)) // #nosec G115 -- lines are bounded by the unit size
}

// Blank reports whether the line has no visible text.
func (l Line) Blank() bool {
	return strings.TrimSpace(l.Text) == ""
}

// CommentBlock is the comment attached to one declaration. Lines keep their
// original order and are never reordered.
type CommentBlock struct {
	Span  source.Span
	Lines []Line
}

// Empty reports whether the block has no visible text.
func (c *CommentBlock) Empty() bool {
	if c == nil {
		return true
	}
	for _, l := range c.Lines {
		if !l.Blank() {
			return false
		}
	}
	return true
}

// Text joins the lines with '\n'.
func (c *CommentBlock) Text() string {
	if c == nil {
		return ""
	}
	parts := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// emptyBlock is the block for a declaration without documentation. Its span
// is the zero-length position of the declaration.
func emptyBlock(at source.Span) *CommentBlock {
	return &CommentBlock{Span: at.ZeroideToStart()}
}
