package rules

import (
	"fmt"

	"doccheck/internal/diag"
	"doccheck/internal/extract"
	"doccheck/internal/segment"
)

// SectionOrder checks that a method's sections follow the order call-seq,
// synopsis, details, arguments, corner cases, aliases, related, and that
// every documented entity has a synopsis.
type SectionOrder struct{}

func (SectionOrder) Name() string { return "sections" }

func (SectionOrder) Check(ctx *Context, doc *Doc, r diag.Reporter) {
	e := doc.Entity
	if e.Kind == extract.KindMethod {
		state := segment.Unclassified
		for i, k := range doc.Kinds {
			if k == segment.Unclassified {
				continue
			}
			if k < state {
				diag.ReportError(r, diag.OutOfOrderSection, doc.Segments[i].Span,
					fmt.Sprintf("%s section of %s follows the %s section; it belongs before it", k, e.FullName(), state)).Emit()
			}
			// Continue from the offending section so later segments are still checked.
			state = k
		}
	}

	if !doc.Has(segment.Synopsis) {
		diag.ReportError(r, diag.MissingSynopsis, e.Comment.Span,
			fmt.Sprintf("%s %s is documented but has no synopsis paragraph", e.Kind, e.FullName())).Emit()
	}
}

// RelatedLimit reports "Related:" lists longer than Options.MaxRelated.
type RelatedLimit struct{}

func (RelatedLimit) Name() string { return "related" }

func (RelatedLimit) Check(ctx *Context, doc *Doc, r diag.Reporter) {
	limit := ctx.Options.MaxRelated
	if limit <= 0 {
		limit = DefaultOptions().MaxRelated
	}
	for i, k := range doc.Kinds {
		if k != segment.Related {
			continue
		}
		refs := segment.RelatedRefs(doc.Segments[i])
		if len(refs) <= limit {
			continue
		}
		extra := refs[limit].Span.Cover(refs[len(refs)-1].Span)
		diag.ReportError(r, diag.TooManyRelated, doc.Segments[i].Span,
			fmt.Sprintf("%d related methods listed; list at most %d", len(refs), limit)).
			WithNote(extra, "consider dropping these").
			Emit()
	}
}
