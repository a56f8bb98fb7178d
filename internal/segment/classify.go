package segment

import (
	"regexp"
	"strings"
)

// Kind is the documentation section a segment belongs to. The declared
// order of the section kinds is the order they must appear in.
type Kind uint8

const (
	Unclassified Kind = iota
	CallSeq
	Synopsis
	Details
	Args
	CornerCases
	Aliases
	Related
)

var kindNames = [...]string{
	Unclassified: "unclassified",
	CallSeq:      "call-seq",
	Synopsis:     "synopsis",
	Details:      "details",
	Args:         "arguments",
	CornerCases:  "corner cases",
	Aliases:      "aliases",
	Related:      "related",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var (
	reAliasSentence = regexp.MustCompile(`^(\S+) is an alias (?:for|of) (\S+?)[.,;]?(?:\s|$)`)
	reLabeledItem   = regexp.MustCompile(`^(?:\[[^\]]+\]|\S[^:]*::(?:\s|$)|[-*]\s+\+\w+\+\s*[:-]|\+\w+\+\s*[:-]\s)`)
	reException     = regexp.MustCompile(`\b[A-Z]\w*(?:Error|Exception)\b|\braise[sd]?\b`)
	reMarkup        = regexp.MustCompile(`^(?:=+\s|:\w+:|-{3,}$|#--|#\+\+)`)
)

// Classify returns the section kind of seg. state is the latest section seen
// so far in the block (Unclassified at the start). Segments that match no
// pattern are Unclassified; the function never guesses.
func Classify(seg Segment, state Kind) Kind {
	if seg.CallSeq {
		return CallSeq
	}
	first := seg.First()
	switch {
	case first == "":
		return Unclassified
	case strings.HasPrefix(first, "Related:"):
		return Related
	case reAliasSentence.MatchString(first):
		return Aliases
	case reMarkup.MatchString(first):
		return Unclassified
	}

	if isLabeledList(seg) {
		return Args
	}
	if state < Synopsis && !seg.Verbatim {
		return Synopsis
	}
	if !seg.Verbatim && reException.MatchString(seg.Text()) {
		return CornerCases
	}
	if state <= Details {
		return Details
	}
	return Unclassified
}

// isLabeledList reports whether every item-start line of seg is a labeled
// list item: "[label] ...", "label:: ...", "- +arg+: ...".
func isLabeledList(seg Segment) bool {
	if seg.Verbatim || len(seg.Lines) == 0 {
		return false
	}
	base := leading(seg.Lines[0].Text)
	for _, l := range seg.Lines {
		if leading(l.Text) > base {
			continue // continuation of the previous item
		}
		if !reLabeledItem.MatchString(strings.TrimSpace(l.Text)) {
			return false
		}
	}
	return true
}

// ParseAlias recognizes "X is an alias for Y." and returns X and Y.
func ParseAlias(sentence string) (alias, target string, ok bool) {
	m := reAliasSentence.FindStringSubmatch(strings.TrimSpace(sentence))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ClassifyAll classifies segs in order, passing each call the latest
// recognized section as state.
func ClassifyAll(segs []Segment) []Kind {
	kinds := make([]Kind, len(segs))
	state := Unclassified
	for i, seg := range segs {
		k := Classify(seg, state)
		kinds[i] = k
		if k != Unclassified {
			state = k
		}
	}
	return kinds
}
