// Package rules validates the documentation of extracted entities. Every
// rule looks at one entity at a time; entities never influence each other.
package rules

import (
	"doccheck/internal/diag"
	"doccheck/internal/extract"
	"doccheck/internal/segment"
	"doccheck/internal/source"
)

// Options tunes the configurable rules.
type Options struct {
	MaxRelated int // longest allowed "Related:" list
}

// DefaultOptions returns the guide's limits.
func DefaultOptions() Options {
	return Options{MaxRelated: 3}
}

// Context is shared by all rules while checking one unit.
type Context struct {
	File        *source.File
	Options     Options
	Annotations Annotations
}

// Doc is an entity with its comment split into classified segments.
type Doc struct {
	Entity   *extract.Entity
	Segments []segment.Segment
	Kinds    []segment.Kind
}

// Analyze splits the comment of e and classifies each segment.
func Analyze(e *extract.Entity) *Doc {
	segs := segment.Split(e.Comment)
	return &Doc{Entity: e, Segments: segs, Kinds: segment.ClassifyAll(segs)}
}

// Has reports whether any segment is of kind k.
func (d *Doc) Has(k segment.Kind) bool {
	for _, got := range d.Kinds {
		if got == k {
			return true
		}
	}
	return false
}

// Rule checks one documented entity.
type Rule interface {
	Name() string
	Check(ctx *Context, doc *Doc, r diag.Reporter)
}

// DefaultRules returns every rule in reporting order.
func DefaultRules() []Rule {
	return []Rule{
		SectionOrder{},
		CallSeqRule{},
		RelatedLimit{},
		Charset{},
	}
}

// Engine applies a rule set to every entity of a unit.
type Engine struct {
	rules []Rule
}

// NewEngine builds an engine; with no rules it uses DefaultRules.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Check runs every rule against every entity. Entities without
// documentation produce no violations.
func (en *Engine) Check(ctx *Context, entities []*extract.Entity, r diag.Reporter) {
	if ctx.Annotations == nil {
		ctx.Annotations = NoAnnotations{}
	}
	for _, e := range entities {
		if e.NoDoc || e.Comment.Empty() {
			continue
		}
		doc := Analyze(e)
		for _, rule := range en.rules {
			rule.Check(ctx, doc, r)
		}
	}
}
