package segment

import (
	"strings"
	"unicode"

	"doccheck/internal/source"
)

// Ref is one identifier listed in a "Related:" segment.
type Ref struct {
	Name string
	Span source.Span
}

// RelatedRefs returns the references listed after "Related:". Only method
// and constant references count; a "{label}[rdoc-ref:...]" link is a single
// item and surrounding prose such as "see also" is ignored.
func RelatedRefs(seg Segment) []Ref {
	var refs []Ref
	for i, l := range seg.Lines {
		text := l.Text
		base := 0
		if i == 0 {
			idx := strings.Index(text, "Related:")
			if idx < 0 {
				return nil
			}
			base = idx + len("Related:")
		}
		refs = append(refs, scanRefs(text, base, seg.Span.File, l.Offset)...)
	}
	return refs
}

func scanRefs(text string, from int, file source.FileID, lineOffset uint32) []Ref {
	var refs []Ref
	add := func(name string, start int) {
		refs = append(refs, Ref{
			Name: name,
			Span: source.Span{
				File:  file,
				Start: lineOffset + uint32(start),           // #nosec G115 -- bounded by the line length
				End:   lineOffset + uint32(start+len(name)), // #nosec G115
			},
		})
	}

	i := from
	for i < len(text) {
		for i < len(text) && isRefSeparator(text[i]) {
			i++
		}
		if i >= len(text) {
			break
		}
		start := i
		if text[i] == '{' {
			// {label}[target] is one link, whatever the label says.
			end := linkEnd(text, i)
			if end < 0 {
				return refs
			}
			add(text[start:end], start)
			i = end
			continue
		}
		for i < len(text) && !isRefSeparator(text[i]) {
			i++
		}
		word := strings.TrimRight(text[start:i], ".:")
		if isReference(word) {
			add(word, start)
		}
	}
	return refs
}

// linkEnd returns the offset just past "{label}[target]" starting at i, or
// -1 when the link does not close on this line.
func linkEnd(text string, i int) int {
	closeBrace := strings.IndexByte(text[i:], '}')
	if closeBrace < 0 {
		return -1
	}
	j := i + closeBrace + 1
	if j < len(text) && text[j] == '[' {
		closeBracket := strings.IndexByte(text[j:], ']')
		if closeBracket < 0 {
			return -1
		}
		return j + closeBracket + 1
	}
	return j
}

// isReference reports whether word names a method or a constant: "#name",
// "::name", "Owner#name", "Owner.name", "Owner::Name", "Owner", or a bare
// word link such as "label[rdoc-ref:...]".
func isReference(word string) bool {
	if word == "" {
		return false
	}
	if strings.Contains(word, "[rdoc-ref:") || strings.Contains(word, "[link:") {
		return true
	}
	switch {
	case strings.HasPrefix(word, "::"):
		return len(word) > 2
	case word[0] == '#':
		return len(word) > 1
	}
	if !unicode.IsUpper(rune(word[0])) {
		return false
	}
	owner, method, found := strings.Cut(word, "#")
	if !found {
		if dot := strings.IndexByte(word, '.'); dot >= 0 {
			owner, method, found = word[:dot], word[dot+1:], true
		} else if sep := strings.LastIndex(word, "::"); sep > 0 && !unicode.IsUpper(rune(word[min(sep+2, len(word)-1)])) {
			owner, method, found = word[:sep], word[sep+2:], true
		}
	}
	if found && method == "" {
		return false
	}
	if !isConstPath(owner) {
		return false
	}
	return !fillerWords[strings.ToLower(owner)] || found
}

func isConstPath(s string) bool {
	for part := range strings.SplitSeq(s, "::") {
		if part == "" || !unicode.IsUpper(rune(part[0])) {
			return false
		}
		for _, r := range part {
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

// fillerWords are capitalized prose words that are never constant names.
var fillerWords = map[string]bool{
	"see": true, "also": true, "and": true, "or": true,
	"the": true, "a": true, "an": true, "for": true, "other": true,
}

func isRefSeparator(c byte) bool {
	switch c {
	case ' ', '\t', ',', ';', '(', ')':
		return true
	}
	return false
}
