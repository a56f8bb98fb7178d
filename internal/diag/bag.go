package diag

import (
	"fmt"
	"sort"

	"doccheck/internal/source"
)

// Bag collects violations for one unit or for a whole run.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag creates a bag holding at most max violations; max <= 0 means unlimited.
func NewBag(max int) *Bag {
	capacity := max
	if capacity <= 0 || capacity > 64 {
		capacity = 64
	}
	return &Bag{
		items: make([]Diagnostic, 0, capacity),
		max:   max,
	}
}

// Add appends d unless the bag is full; it reports whether d was kept.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Cap returns the configured limit (0 when unlimited).
func (b *Bag) Cap() int {
	if b.max < 0 {
		return 0
	}
	return b.max
}

// HasErrors reports whether any violation has error severity.
func (b *Bag) HasErrors() bool {
	return b.HasAtLeast(SevError)
}

// HasAtLeast reports whether any violation is at or above threshold.
func (b *Bag) HasAtLeast(threshold Severity) bool {
	for i := range b.items {
		if b.items[i].Severity >= threshold {
			return true
		}
	}
	return false
}

// Count returns how many violations carry the given code.
func (b *Bag) Count(code Code) int {
	n := 0
	for i := range b.items {
		if b.items[i].Code == code {
			n++
		}
	}
	return n
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the underlying slice. Callers must not modify it.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends all violations from other, growing the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	newTotal := len(b.items) + len(other.items)
	if b.max > 0 && newTotal > b.max {
		b.max = newTotal
	}
	b.items = append(b.items, other.items...)
}

// Filter keeps only violations for which keep returns true.
func (b *Bag) Filter(keep func(Diagnostic) bool) {
	out := b.items[:0]
	for _, d := range b.items {
		if keep(d) {
			out = append(out, d)
		}
	}
	b.items = out
}

// Sort orders violations by unit path, span start, rule id, then span end
// and message so output is deterministic. When fs is nil, FileID order is
// used in place of the path.
func (b *Bag) Sort(fs *source.FileSet) {
	pathOf := func(id source.FileID) string {
		if fs == nil || int(id) >= fs.Len() {
			return ""
		}
		return fs.Get(id).Path
	}
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			pi, pj := pathOf(di.Primary.File), pathOf(dj.Primary.File)
			if pi != pj {
				return pi < pj
			}
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if ci, cj := di.Code.String(), dj.Code.String(); ci != cj {
			return ci < cj
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		return di.Message < dj.Message
	})
}

// Dedup drops violations repeating an earlier code+span+message.
func (b *Bag) Dedup() {
	seen := make(map[string]bool)
	newitems := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s:%s", d.Code.String(), d.Primary.String(), d.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		newitems = append(newitems, d)
	}
	b.items = newitems
}
