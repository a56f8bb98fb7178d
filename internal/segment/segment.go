// Package segment splits a comment block into paragraphs and classifies
// each one as a documentation section.
package segment

import (
	"strings"

	"doccheck/internal/extract"
	"doccheck/internal/source"
)

// Segment is one paragraph of a comment block. A "call-seq:" header and the
// lines that follow it up to the next blank line always form one segment.
type Segment struct {
	Lines    []extract.Line
	Span     source.Span
	CallSeq  bool // Lines exclude the "call-seq:" header
	Verbatim bool // indented deeper than the surrounding prose
}

// Text joins the segment lines with '\n'.
func (s Segment) Text() string {
	parts := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// First returns the first line with leading whitespace removed.
func (s Segment) First() string {
	if len(s.Lines) == 0 {
		return ""
	}
	return strings.TrimSpace(s.Lines[0].Text)
}

const callSeqHeader = "call-seq:"

// Split returns the segments of block in their original order.
func Split(block *extract.CommentBlock) []Segment {
	if block.Empty() {
		return nil
	}
	base := baseIndent(block.Lines)
	file := block.Span.File

	var (
		out     []Segment
		cur     []extract.Line
		callSeq bool
		header  *extract.Line
	)
	flush := func() {
		if len(cur) == 0 && header == nil {
			callSeq = false
			return
		}
		seg := Segment{Lines: cur, CallSeq: callSeq}
		first, last := header, header
		if len(cur) > 0 {
			if first == nil {
				first = &cur[0]
			}
			last = &cur[len(cur)-1]
		}
		seg.Span = source.Span{File: file, Start: first.Offset, End: last.End()}
		seg.Verbatim = !callSeq && len(cur) > 0 && indentOf(cur) > base
		out = append(out, seg)
		cur, callSeq, header = nil, false, nil
	}

	for i := range block.Lines {
		line := block.Lines[i]
		trimmed := strings.TrimSpace(line.Text)
		if trimmed == "" {
			flush()
			continue
		}
		if strings.HasPrefix(strings.ToLower(trimmed), callSeqHeader) {
			flush()
			callSeq = true
			header = &block.Lines[i]
			lead := len(line.Text) - len(strings.TrimLeft(line.Text, " \t"))
			rest := line.Text[lead+len(callSeqHeader):]
			if inline := strings.TrimSpace(rest); inline != "" {
				skip := lead + len(callSeqHeader) + len(rest) - len(strings.TrimLeft(rest, " \t"))
				cur = append(cur, extract.Line{
					Text:   strings.TrimRight(line.Text[skip:], " \t"),
					Offset: line.Offset + uint32(skip), // #nosec G115 -- bounded by the line length
				})
			}
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

func leading(text string) int {
	return len(text) - len(strings.TrimLeft(text, " \t"))
}

func indentOf(lines []extract.Line) int {
	minIndent := -1
	for _, l := range lines {
		if l.Blank() {
			continue
		}
		if n := leading(l.Text); minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	return max(minIndent, 0)
}

// baseIndent is the indentation of the prose of a block: the smallest
// indentation of a line outside call-seq sections.
func baseIndent(lines []extract.Line) int {
	minIndent := -1
	inCallSeq := false
	for _, l := range lines {
		trimmed := strings.TrimSpace(l.Text)
		switch {
		case trimmed == "":
			inCallSeq = false
			continue
		case strings.HasPrefix(strings.ToLower(trimmed), callSeqHeader):
			inCallSeq = true
		case inCallSeq:
			continue
		}
		if n := leading(l.Text); minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	return max(minIndent, 0)
}
