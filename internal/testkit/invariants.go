// Package testkit holds checks shared by tests of several packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"doccheck/internal/diag"
	"doccheck/internal/extract"
	"doccheck/internal/source"
)

// CheckEntityInvariants runs a minimal set of invariants on extracted entities:
// 1) declaration and comment spans are ordered and within the unit
// 2) every comment line is the unit text at its offset
// 3) comment lines keep source order
func CheckEntityInvariants(sf *source.File, entities []*extract.Entity) error {
	if sf == nil {
		return fmt.Errorf("nil file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	for _, e := range entities {
		name := e.FullName()
		if err := checkSpan(sf.ID, size, e.Decl); err != nil {
			return fmt.Errorf("%s: declaration: %w", name, err)
		}
		if e.Comment == nil {
			return fmt.Errorf("%s: nil comment block", name)
		}
		if err := checkSpan(sf.ID, size, e.Comment.Span); err != nil {
			return fmt.Errorf("%s: comment: %w", name, err)
		}
		var prev uint32
		for i, l := range e.Comment.Lines {
			if l.Offset < prev {
				return fmt.Errorf("%s: comment line %d at %d precedes line %d", name, i, l.Offset, i-1)
			}
			prev = l.End()
			if l.End() > size {
				return fmt.Errorf("%s: comment line %d ends at %d beyond content %d", name, i, l.End(), size)
			}
			if got := string(sf.Content[l.Offset:l.End()]); got != l.Text {
				return fmt.Errorf("%s: comment line %d is %q but the unit has %q", name, i, l.Text, got)
			}
		}
	}
	return nil
}

// CheckDiagnosticSpans verifies that every primary span, note span and fix
// edit of items points inside sf.
func CheckDiagnosticSpans(sf *source.File, items []diag.Diagnostic) error {
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	for _, d := range items {
		if err := checkSpan(sf.ID, size, d.Primary); err != nil {
			return fmt.Errorf("%s: %w", d.Code, err)
		}
		for _, n := range d.Notes {
			if err := checkSpan(sf.ID, size, n.Span); err != nil {
				return fmt.Errorf("%s note: %w", d.Code, err)
			}
		}
		for _, f := range d.Fixes {
			for _, e := range f.Edits {
				if err := checkSpan(sf.ID, size, e.Span); err != nil {
					return fmt.Errorf("%s fix %q: %w", d.Code, f.Title, err)
				}
			}
		}
	}
	return nil
}

func checkSpan(file source.FileID, size uint32, sp source.Span) error {
	if sp.File != file {
		return fmt.Errorf("span points to different file id: got=%d want=%d", sp.File, file)
	}
	if sp.End < sp.Start {
		return fmt.Errorf("span is inverted: %v", sp)
	}
	if sp.End > size {
		return fmt.Errorf("span end beyond content: %d > %d", sp.End, size)
	}
	return nil
}
