package diag

import (
	"fmt"
	"sort"
)

// Code identifies the rule that produced a violation.
type Code uint16

const (
	UnknownCode Code = 0

	// Extraction
	MalformedComment Code = 1001
	IOLoadFile       Code = 1002

	// Call-seq
	CallSeqSyntaxError    Code = 2001
	BlockPlaceholderError Code = 2002
	ReceiverNamingError   Code = 2003
	RedundantEntry        Code = 2004

	// Structure
	OutOfOrderSection Code = 3001
	TooManyRelated    Code = 3002
	MissingSynopsis   Code = 3003
	MissingCallSeq    Code = 3004
	NonASCIIComment   Code = 3005

	// Links and aliases
	DuplicateAliasListing      Code = 4001
	ExcessiveAutoLinkCandidate Code = 4002
)

type codeInfo struct {
	name  string
	title string
	sev   Severity
}

var codeTable = map[Code]codeInfo{
	UnknownCode:                {"Unknown", "Unknown violation", SevError},
	MalformedComment:           {"MalformedComment", "Comment delimiter is not terminated", SevError},
	IOLoadFile:                 {"IOLoadFile", "Source unit could not be read", SevError},
	CallSeqSyntaxError:         {"CallSeqSyntaxError", "call-seq line does not follow the notation", SevError},
	BlockPlaceholderError:      {"BlockPlaceholderError", "Block placeholder must be {|x| ... }", SevError},
	ReceiverNamingError:        {"ReceiverNamingError", "Receiver or new instance spelled incorrectly in returns", SevError},
	RedundantEntry:             {"RedundantEntry", "call-seq entries differ only by an optional trailing argument", SevAdvisory},
	OutOfOrderSection:          {"OutOfOrderSection", "Documentation section appears out of order", SevError},
	TooManyRelated:             {"TooManyRelated", "Too many related methods listed", SevError},
	MissingSynopsis:            {"MissingSynopsis", "Documented entity has no synopsis", SevError},
	MissingCallSeq:             {"MissingCallSeq", "Method written in C has no call-seq", SevError},
	NonASCIIComment:            {"NonASCIIComment", "Comment contains non US-ASCII characters", SevError},
	DuplicateAliasListing:      {"DuplicateAliasListing", "Alias is documented separately", SevError},
	ExcessiveAutoLinkCandidate: {"ExcessiveAutoLinkCandidate", "Name is auto-linked too often", SevAdvisory},
}

// ID returns the compact identifier, e.g. "CSQ2001".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("EXT%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("CSQ%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("STR%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LNK%04d", ic)
	}
	return "E0000"
}

// Title returns a one-line description of the rule.
func (c Code) Title() string {
	info, ok := codeTable[c]
	if !ok {
		return codeTable[UnknownCode].title
	}
	return info.title
}

// DefaultSeverity is the severity a rule reports with unless the producer
// decides otherwise.
func (c Code) DefaultSeverity() Severity {
	info, ok := codeTable[c]
	if !ok {
		return SevError
	}
	return info.sev
}

// String returns the rule id used in reports, e.g. "TooManyRelated".
func (c Code) String() string {
	info, ok := codeTable[c]
	if !ok {
		return fmt.Sprintf("Code(%d)", uint16(c))
	}
	return info.name
}

// ParseCode looks a rule up by its rule id or compact id.
func ParseCode(s string) (Code, bool) {
	for c, info := range codeTable {
		if c == UnknownCode {
			continue
		}
		if info.name == s || c.ID() == s {
			return c, true
		}
	}
	return UnknownCode, false
}

// AllCodes returns every known rule code in ascending order.
func AllCodes() []Code {
	out := make([]Code, 0, len(codeTable))
	for c := range codeTable {
		if c != UnknownCode {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
