package callseq

import (
	"cmp"
	"fmt"
	"slices"

	"doccheck/internal/diag"
	"doccheck/internal/fix"
	"doccheck/internal/source"
)

// BehaviorHint tells whether leaving an argument out behaves the same as
// passing it. Whether two forms behave alike is stated in prose, so the
// answer comes from outside the parser. def is the documented default, if
// the prose names one.
type BehaviorHint interface {
	SameWhenOmitted(arg string) (def string, ok bool)
}

// HintFunc adapts a function to BehaviorHint.
type HintFunc func(arg string) (string, bool)

func (f HintFunc) SameWhenOmitted(arg string) (string, bool) {
	return f(arg)
}

// Redundancy is a pair of entries that differ only by one trailing argument
// which behaves the same when omitted. Chain lists every entry of the run of
// such pairs the pair belongs to, shortest first; Merged is the single entry
// that replaces the whole run.
type Redundancy struct {
	Short  *Entry
	Long   *Entry
	Arg    Arg
	Merged *Entry
	Chain  []*Entry
}

type redundantLink struct {
	short, long *Entry
	arg         Arg
	def         string
}

// FindRedundant pairs entries for the same call whose argument lists differ
// only by the presence of one trailing argument. A pair is returned only when
// hint confirms the argument behaves the same when omitted; without a hint
// nothing is returned. Pairs that chain, such as f, f(a) and f(a, b), are all
// returned and share one merged entry carrying every default.
func FindRedundant(entries []*Entry, hint BehaviorHint) []Redundancy {
	if hint == nil {
		return nil
	}
	var links []redundantLink
	for i, a := range entries {
		for _, b := range entries[i+1:] {
			if !sameShape(a, b) {
				continue
			}
			short, long := a, b
			if len(short.Args) > len(long.Args) {
				short, long = long, short
			}
			if !trailingOnly(short, long) {
				continue
			}
			extra := long.Args[len(long.Args)-1]
			if extra.Rest || extra.Prefix != "" {
				continue
			}
			def, ok := hint.SameWhenOmitted(extra.Name)
			if !ok {
				continue
			}
			links = append(links, redundantLink{short: short, long: long, arg: extra, def: def})
		}
	}

	next := make(map[*Entry]int, len(links))
	prev := make(map[*Entry]int, len(links))
	for i, l := range links {
		if _, ok := next[l.short]; !ok {
			next[l.short] = i
		}
		if _, ok := prev[l.long]; !ok {
			prev[l.long] = i
		}
	}

	out := make([]Redundancy, 0, len(links))
	for i, l := range links {
		chain := []redundantLink{l}
		for cur := l.short; ; {
			j, ok := prev[cur]
			if !ok {
				break
			}
			chain = append([]redundantLink{links[j]}, chain...)
			cur = links[j].short
		}
		for cur := l.long; ; {
			j, ok := next[cur]
			if !ok || j == i {
				break
			}
			chain = append(chain, links[j])
			cur = links[j].long
		}
		entriesInChain := []*Entry{chain[0].short}
		for _, c := range chain {
			entriesInChain = append(entriesInChain, c.long)
		}
		out = append(out, Redundancy{
			Short:  l.short,
			Long:   l.long,
			Arg:    l.arg,
			Merged: merge(chain),
			Chain:  entriesInChain,
		})
	}
	return out
}

func trailingOnly(short, long *Entry) bool {
	if len(long.Args) != len(short.Args)+1 {
		return false
	}
	for i, a := range short.Args {
		b := long.Args[i]
		if a.Name != b.Name || a.Prefix != b.Prefix || a.Rest != b.Rest || a.Keyword != b.Keyword {
			return false
		}
	}
	return true
}

// merge fills in the default of every argument the chain makes optional on
// its longest entry.
func merge(chain []redundantLink) *Entry {
	longest := chain[len(chain)-1].long
	merged := *longest
	merged.Args = append([]Arg(nil), longest.Args...)
	for _, l := range chain {
		arg := &merged.Args[len(l.long.Args)-1]
		if arg.HasDefault {
			continue
		}
		arg.Default = cmp.Or(l.def, "nil")
		arg.HasDefault = true
	}
	merged.Parens = true
	return &merged
}

// ReportRedundant emits one RedundantEntry advisory per pair, placed on the
// longer entry. The first pair of a chain carries a fix that replaces the
// whole chain with the merged entry when no other entry sits between them.
func ReportRedundant(pairs []Redundancy, entries []*Entry, r diag.Reporter) {
	for _, p := range pairs {
		b := diag.ReportAdvisory(r, diag.RedundantEntry, p.Long.Span,
			fmt.Sprintf("entries differ only by optional argument %q; document one entry: %s", p.Arg.Name, p.Merged.String())).
			WithNote(p.Short.Span, "shorter form documented here")
		if len(p.Chain) > 0 && p.Chain[0] == p.Short {
			if cover, ok := chainCover(p.Chain, entries); ok {
				b = b.WithFixSuggestion(fix.ReplaceSpan("merge call-seq entries", cover, p.Merged.String(), "",
					fix.WithApplicability(diag.FixApplicabilitySafeWithHeuristics)))
			}
		}
		b.Emit()
	}
}

// chainCover returns the span covering chain, provided no entry outside the
// chain lies inside it.
func chainCover(chain, entries []*Entry) (source.Span, bool) {
	cover := chain[0].Span
	for _, e := range chain[1:] {
		cover = cover.Cover(e.Span)
	}
	for _, e := range entries {
		if slices.Contains(chain, e) {
			continue
		}
		if cover.Contains(e.Span) {
			return source.Span{}, false
		}
	}
	return cover, true
}
