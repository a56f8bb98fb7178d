package rules

import (
	"fmt"
	"regexp"
	"strings"

	"doccheck/internal/callseq"
	"doccheck/internal/diag"
	"doccheck/internal/extract"
	"doccheck/internal/segment"
	"doccheck/internal/source"
)

// CallSeqRule parses the call-seq sections of a method and checks them:
// the notation itself, redundant entries, new-instance naming, and the
// presence of a call-seq for methods written in C.
type CallSeqRule struct{}

func (CallSeqRule) Name() string { return "call-seq" }

func (CallSeqRule) Check(ctx *Context, doc *Doc, r diag.Reporter) {
	e := doc.Entity
	if e.Kind != extract.KindMethod {
		return
	}

	var entries []*callseq.Entry
	for i, k := range doc.Kinds {
		if k == segment.CallSeq {
			entries = append(entries, callseq.ParseLines(e.Comment.Span.File, doc.Segments[i].Lines, r)...)
		}
	}

	if !doc.Has(segment.CallSeq) {
		if e.Lang == source.LangC {
			diag.ReportError(r, diag.MissingCallSeq, e.Comment.Span,
				fmt.Sprintf("method %s is written in C and needs a call-seq section", e.FullName())).Emit()
		}
		return
	}

	callseq.ReportRedundant(callseq.FindRedundant(entries, proseHint(doc)), entries, r)
	checkNewInstance(ctx, e, entries, r)
}

func checkNewInstance(ctx *Context, e *extract.Entity, entries []*callseq.Entry, r diag.Reporter) {
	constructs, known := ctx.Annotations.ConstructsNew(e.FullName())
	if !known {
		return
	}
	for _, entry := range entries {
		var newRet *callseq.Type
		for i := range entry.Returns {
			if strings.HasPrefix(entry.Returns[i].Name, "new_") {
				newRet = &entry.Returns[i]
				break
			}
		}
		switch {
		case constructs && newRet == nil:
			diag.ReportError(r, diag.ReceiverNamingError, entry.Span,
				fmt.Sprintf("%s returns a new instance; name the return value with a new_ prefix", e.FullName())).Emit()
		case !constructs && newRet != nil:
			diag.ReportError(r, diag.ReceiverNamingError, newRet.Span,
				fmt.Sprintf("%q names a new instance, but %s returns an existing object", newRet.Name, e.FullName())).Emit()
		}
	}
}

var (
	reDefaultsTo = regexp.MustCompile(`\+(\w+)\+\s+defaults\s+to\s+(?:\+([^+]+)\+|<tt>([^<]+)</tt>|([^\s.,;]+))`)
	reIfOmitted  = regexp.MustCompile(`(?i)if\s+\+(\w+)\+\s+is\s+(?:omitted|not\s+given|not\s+specified)`)
	reOptional   = regexp.MustCompile(`(?i)optional\s+argument\s+\+(\w+)\+`)
)

// proseHint reads, from the non call-seq text of doc, which arguments the
// documentation describes as behaving the same when left out.
func proseHint(doc *Doc) callseq.BehaviorHint {
	found := make(map[string]string)
	for i, seg := range doc.Segments {
		if doc.Kinds[i] == segment.CallSeq {
			continue
		}
		text := strings.Join(strings.Fields(seg.Text()), " ")
		for _, m := range reDefaultsTo.FindAllStringSubmatch(text, -1) {
			found[m[1]] = firstNonEmpty(m[2], m[3], m[4])
		}
		for _, re := range []*regexp.Regexp{reIfOmitted, reOptional} {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if _, ok := found[m[1]]; !ok {
					found[m[1]] = ""
				}
			}
		}
	}
	return callseq.HintFunc(func(arg string) (string, bool) {
		def, ok := found[arg]
		return def, ok
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
