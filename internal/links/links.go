// Package links analyzes cross references between the comments of one
// unit: alias mentions and names that would be auto-linked too often.
package links

import (
	"fmt"
	"regexp"
	"strings"

	"doccheck/internal/diag"
	"doccheck/internal/extract"
	"doccheck/internal/fix"
	"doccheck/internal/segment"
	"doccheck/internal/source"
)

// Options tunes the analyzer.
type Options struct {
	AutolinkThreshold int // occurrences per comment before a name is reported
}

// DefaultOptions returns the guide's threshold.
func DefaultOptions() Options {
	return Options{AutolinkThreshold: 3}
}

// Edge records "Alias is an alias for Target" found in the comment of From.
type Edge struct {
	Alias  string
	Target string
	Span   source.Span
	From   *extract.Entity
}

type doc struct {
	entity *extract.Entity
	segs   []segment.Segment
	kinds  []segment.Kind
}

// Analyze inspects every comment of a unit. It returns the alias edges and
// reports DuplicateAliasListing and ExcessiveAutoLinkCandidate violations.
// entities must be the complete list for the unit.
func Analyze(entities []*extract.Entity, opts Options, r diag.Reporter) []Edge {
	if opts.AutolinkThreshold <= 0 {
		opts.AutolinkThreshold = DefaultOptions().AutolinkThreshold
	}
	ix := newIndex(entities)

	docs := make([]doc, 0, len(entities))
	for _, e := range entities {
		if e.NoDoc || e.Comment.Empty() {
			continue
		}
		segs := segment.Split(e.Comment)
		docs = append(docs, doc{entity: e, segs: segs, kinds: segment.ClassifyAll(segs)})
	}

	var edges []Edge
	for _, d := range docs {
		edges = append(edges, aliasEdges(d)...)
	}
	for _, edge := range edges {
		checkDuplicate(ix, edge, r)
	}
	for _, d := range docs {
		checkAutoLinks(ix, d, opts.AutolinkThreshold, r)
	}
	return edges
}

func aliasEdges(d doc) []Edge {
	var edges []Edge
	for i, k := range d.kinds {
		if k != segment.Aliases {
			continue
		}
		seg := d.segs[i]
		alias, target, ok := segment.ParseAlias(seg.Text())
		if !ok {
			continue
		}
		edges = append(edges, Edge{Alias: alias, Target: target, Span: seg.Span, From: d.entity})
	}
	return edges
}

// checkDuplicate reports an alias that also carries its own documentation.
// An alias whose comment only points at its target is a mention, not a
// separate listing.
func checkDuplicate(ix *index, edge Edge, r diag.Reporter) {
	alias := ix.resolve(edge.Alias, edge.From)
	if alias == nil || alias == edge.From || alias.NoDoc || alias.Comment.Empty() {
		return
	}
	segs := segment.Split(alias.Comment)
	if len(segs) > 0 && reAliasStub.MatchString(segs[0].First()) {
		return
	}
	full := false
	for _, k := range segment.ClassifyAll(segs) {
		if k != segment.Aliases && k != segment.Unclassified {
			full = true
			break
		}
	}
	if !full {
		return
	}
	diag.ReportError(r, diag.DuplicateAliasListing, alias.Comment.Span,
		fmt.Sprintf("%s is an alias for %s and must not be documented separately", alias.FullName(), edge.Target)).
		WithNote(edge.Span, "alias mentioned here").
		Emit()
}

var (
	reAliasStub  = regexp.MustCompile(`(?i)^alias (?:for|of)\b`)
	reCodeMarkup = regexp.MustCompile(`\+[^+\s][^+]*\+|<tt>.*?</tt>|<code>.*?</code>`)
	reReference  = regexp.MustCompile(`(?:[A-Z]\w*(?:::[A-Z]\w*)*)?(?:#|::|\.)[A-Za-z_]\w*[?!=]?|[A-Z]\w*(?:::[A-Z]\w*)*`)
)

type occurrence struct {
	span source.Span
}

func checkAutoLinks(ix *index, d doc, threshold int, r diag.Reporter) {
	counts := make(map[*extract.Entity][]occurrence)
	var order []*extract.Entity
	file := d.entity.Comment.Span.File

	for i, seg := range d.segs {
		if d.kinds[i] == segment.CallSeq || seg.Verbatim {
			continue
		}
		for _, line := range seg.Lines {
			text := maskMarkup(line.Text)
			for _, m := range reReference.FindAllStringIndex(text, -1) {
				start, end := m[0], m[1]
				if start > 0 && (isWordByte(text[start-1]) || text[start-1] == '\\' || text[start-1] == ':') {
					continue
				}
				target := ix.resolve(text[start:end], d.entity)
				if target == nil {
					continue
				}
				if _, seen := counts[target]; !seen {
					order = append(order, target)
				}
				counts[target] = append(counts[target], occurrence{span: source.Span{
					File:  file,
					Start: line.Offset + uint32(start), // #nosec G115 -- bounded by the line length
					End:   line.Offset + uint32(end),   // #nosec G115
				}})
			}
		}
	}

	for _, target := range order {
		occ := counts[target]
		if len(occ) <= threshold {
			continue
		}
		later := make([]source.Span, 0, len(occ)-1)
		for _, o := range occ[1:] {
			later = append(later, o.span)
		}
		suppress := fix.EscapeRefs("escape repeated references", later)
		diag.ReportAdvisory(r, diag.ExcessiveAutoLinkCandidate, occ[threshold].span,
			fmt.Sprintf("%s is referenced %d times in this comment and each reference becomes a link; escape later references with \\ or mark them with +...+",
				target.FullName(), len(occ))).
			WithNote(occ[0].span, "first reference").
			WithFixSuggestion(suppress).
			Emit()
	}
}

// maskMarkup blanks text that RDoc never auto-links.
func maskMarkup(text string) string {
	return reCodeMarkup.ReplaceAllStringFunc(text, func(s string) string {
		return strings.Repeat(" ", len(s))
	})
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
