// Package fix applies the edits attached to violations back to the checked
// files.
package fix

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode selects which fixes Apply uses.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota // the first fix, safe ones first
	ApplyModeAll                   // every AlwaysSafe fix
	ApplyModeID                    // the fix with ApplyOptions.TargetID
)

// ApplyOptions configures Apply.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	DryRun   bool // compute changes without writing files
}

// AppliedFix records a fix that made it into the output.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix is a fix that was not applied, with the reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange describes the edits made to one file.
type FileChange struct {
	Path      string
	EditCount int
	Before    []byte // content the fixes were computed from
	After     []byte
}

// ApplyResult is the outcome of Apply.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply picks fixes from diagnostics according to opts and writes the edited
// files. Edit offsets always refer to the content the diagnostics were
// produced from; a fix whose edits overlap an already accepted fix, or whose
// guard text no longer matches, is skipped as a whole.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	res := &ApplyResult{}
	if fs == nil {
		return res, errors.New("fix: nil file set")
	}

	cands, skipped := gatherCandidates(diagnostics)
	res.Skipped = append(res.Skipped, skipped...)
	sortCandidates(cands)
	selected, skipped := selectCandidates(cands, opts)
	res.Skipped = append(res.Skipped, skipped...)
	if len(selected) == 0 {
		return res, ErrNoFixes
	}

	ws := &workspace{fs: fs, edits: make(map[source.FileID][]diag.TextEdit)}
	for _, c := range selected {
		if reason := ws.stage(c.fix); reason != "" {
			res.Skipped = append(res.Skipped, SkippedFix{ID: c.fix.ID, Title: c.fix.Title, Reason: reason})
			continue
		}
		res.Applied = append(res.Applied, AppliedFix{
			ID:            c.fix.ID,
			Title:         c.fix.Title,
			Code:          c.diag.Code,
			Message:       c.diag.Message,
			Applicability: c.fix.Applicability,
			PrimaryPath:   displayPath(fs, c.diag.Primary.File),
			EditCount:     len(c.fix.Edits),
		})
	}
	if len(res.Applied) == 0 {
		return res, ErrNoFixes
	}

	changes, err := ws.commit(opts.DryRun)
	res.FileChanges = changes
	return res, err
}

// gatherCandidates flattens the fixes of all diagnostics. Fixes without an
// ID get one derived from the rule and position; fixes without edits and
// repeated IDs are skipped.
func gatherCandidates(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var (
		cands []candidate
		skips []SkippedFix
	)
	seen := make(map[string]bool)
	for _, d := range diagnostics {
		for i, f := range d.Fixes {
			if len(f.Edits) == 0 {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start)
				if i > 0 {
					f.ID += fmt.Sprintf(".%d", i)
				}
			}
			if seen[f.ID] {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "duplicate fix id"})
				continue
			}
			seen[f.ID] = true
			cands = append(cands, candidate{diag: d, fix: f, order: len(cands)})
		}
	}
	return cands, skips
}

// sortCandidates orders fixes by position, then prefers the producer's
// preferred fix among alternatives for the same violation.
func sortCandidates(cands []candidate) {
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(a.diag.Primary.File, b.diag.Primary.File),
			cmp.Compare(a.diag.Primary.Start, b.diag.Primary.Start),
			cmp.Compare(a.diag.Primary.End, b.diag.Primary.End),
			cmp.Compare(a.diag.Code, b.diag.Code),
			cmp.Compare(preferredRank(a.fix), preferredRank(b.fix)),
			cmp.Compare(a.order, b.order),
		)
	})
}

func preferredRank(f diag.Fix) int {
	if f.IsPreferred {
		return 0
	}
	return 1
}

func selectCandidates(cands []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, c := range cands {
			if c.fix.ID == opts.TargetID {
				return []candidate{c}, nil
			}
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
	case ApplyModeAll:
		var (
			selected []candidate
			skipped  []SkippedFix
		)
		for _, c := range cands {
			if c.fix.Applicability != diag.FixApplicabilityAlwaysSafe {
				skipped = append(skipped, SkippedFix{
					ID:     c.fix.ID,
					Title:  c.fix.Title,
					Reason: "applicability is " + c.fix.Applicability.String(),
				})
				continue
			}
			selected = append(selected, c)
		}
		return selected, skipped
	case ApplyModeOnce:
		if len(cands) == 0 {
			return nil, nil
		}
		for _, c := range cands {
			if c.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				return []candidate{c}, nil
			}
		}
		return cands[:1], nil
	}
	return nil, nil
}

// workspace holds the accepted edits per file, in original offsets.
type workspace struct {
	fs    *source.FileSet
	edits map[source.FileID][]diag.TextEdit
}

// stage accepts all edits of f or none. It returns the reason for rejecting.
func (w *workspace) stage(f diag.Fix) string {
	for i, e := range f.Edits {
		file := w.fs.Get(e.Span.File)
		switch {
		case file == nil:
			return "target file is unknown"
		case file.Flags&source.FileVirtual != 0:
			return "target file is virtual"
		case e.Span.End < e.Span.Start || int(e.Span.End) > len(file.Content):
			return "edit span out of range"
		case e.OldText != "" && string(file.Content[e.Span.Start:e.Span.End]) != e.OldText:
			return "existing text does not match expected content"
		}
		for _, prev := range w.edits[e.Span.File] {
			if spansConflict(prev, e) {
				return "conflicts with previously applied edits in " + displayPath(w.fs, e.Span.File)
			}
		}
		for _, other := range f.Edits[:i] {
			if other.Span.File == e.Span.File && spansConflict(other, e) {
				return "fix has overlapping edits"
			}
		}
	}
	for _, e := range f.Edits {
		w.edits[e.Span.File] = append(w.edits[e.Span.File], e)
	}
	return ""
}

// commit renders every touched file and, unless dryRun, writes it back.
func (w *workspace) commit(dryRun bool) ([]FileChange, error) {
	changes := make([]FileChange, 0, len(w.edits))
	for _, id := range slices.Sorted(maps.Keys(w.edits)) {
		file := w.fs.Get(id)
		edits := w.edits[id]
		after := render(file.Content, edits)
		if !dryRun {
			if err := writeKeepingMode(file.Path, after); err != nil {
				return changes, err
			}
		}
		changes = append(changes, FileChange{
			Path:      file.FormatPath("relative", w.fs.BaseDir()),
			EditCount: len(edits),
			Before:    file.Content,
			After:     after,
		})
	}
	slices.SortStableFunc(changes, func(a, b FileChange) int { return cmp.Compare(a.Path, b.Path) })
	return changes, nil
}

// render applies non-overlapping edits to content. Insertions at the same
// offset keep the order they were staged in.
func render(content []byte, edits []diag.TextEdit) []byte {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b diag.TextEdit) int {
		return cmp.Compare(a.Span.Start, b.Span.Start)
	})
	var out bytes.Buffer
	out.Grow(len(content))
	var pos uint32
	for _, e := range sorted {
		out.Write(content[pos:e.Span.Start])
		out.WriteString(e.NewText)
		pos = e.Span.End
	}
	out.Write(content[pos:])
	return out.Bytes()
}

func writeKeepingMode(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// spansConflict reports whether two edits touch the same text. Spans are
// half-open; two insertions never conflict, an insertion conflicts with a
// replacement that strictly contains its offset or starts at it.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End
	switch {
	case aStart == aEnd && bStart == bEnd:
		return false
	case aStart == aEnd:
		return bStart <= aStart && aStart < bEnd
	case bStart == bEnd:
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func displayPath(fs *source.FileSet, id source.FileID) string {
	file := fs.Get(id)
	if file == nil {
		return ""
	}
	return file.FormatPath("auto", fs.BaseDir())
}
