package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// LocationJSON is a position in a unit.
type LocationJSON struct {
	Path      string `json:"path"`
	Line      uint32 `json:"line"`
	Column    uint32 `json:"column"`
	EndLine   uint32 `json:"end_line"`
	EndColumn uint32 `json:"end_column"`
}

// NoteJSON is a secondary message attached to a violation.
type NoteJSON struct {
	Message string `json:"message"`
	LocationJSON
}

// FixEditJSON is one edit of a fix.
type FixEditJSON struct {
	LocationJSON
	NewText     string   `json:"new_text"`
	OldText     string   `json:"old_text,omitempty"`
	BeforeLines []string `json:"before_lines,omitempty"`
	AfterLines  []string `json:"after_lines,omitempty"`
}

// FixJSON is a suggested fix.
type FixJSON struct {
	ID            string        `json:"id,omitempty"`
	Title         string        `json:"title"`
	Applicability string        `json:"applicability"`
	IsPreferred   bool          `json:"is_preferred,omitempty"`
	Edits         []FixEditJSON `json:"edits,omitempty"`
}

// ViolationJSON is one record of the JSON report.
type ViolationJSON struct {
	LocationJSON
	RuleID   string     `json:"rule_id"`
	Code     string     `json:"code"`
	Severity string     `json:"severity"`
	Message  string     `json:"message"`
	Notes    []NoteJSON `json:"notes,omitempty"`
	Fixes    []FixJSON  `json:"fixes,omitempty"`
}

// ReportJSON is the root of the JSON report.
type ReportJSON struct {
	Violations []ViolationJSON `json:"violations"`
	Count      int             `json:"count"`
}

func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode) LocationJSON {
	f := fs.Get(span.File)
	if f == nil {
		return LocationJSON{}
	}
	start, end := fs.Resolve(span)
	return LocationJSON{
		Path:      formatPath(f, fs, pathMode),
		Line:      start.Line,
		Column:    start.Col,
		EndLine:   end.Line,
		EndColumn: end.Col,
	}
}

// BuildReport assembles the JSON report without serializing it.
func BuildReport(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) ReportJSON {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}
	violations := make([]ViolationJSON, 0, maxItems)

	for _, d := range items[:maxItems] {
		v := ViolationJSON{
			LocationJSON: makeLocation(d.Primary, fs, opts.PathMode),
			RuleID:       d.Code.String(),
			Code:         d.Code.ID(),
			Severity:     d.Severity.String(),
			Message:      d.Message,
		}

		if opts.IncludeNotes && len(d.Notes) > 0 {
			v.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				v.Notes[j] = NoteJSON{
					Message:      note.Msg,
					LocationJSON: makeLocation(note.Span, fs, opts.PathMode),
				}
			}
		}

		if opts.IncludeFixes && len(d.Fixes) > 0 {
			fixes := append([]diag.Fix(nil), d.Fixes...)
			sort.SliceStable(fixes, func(i, j int) bool {
				fi, fj := fixes[i], fixes[j]
				if fi.IsPreferred != fj.IsPreferred {
					return fi.IsPreferred
				}
				if fi.Applicability != fj.Applicability {
					return fi.Applicability < fj.Applicability
				}
				if fi.Title != fj.Title {
					return fi.Title < fj.Title
				}
				return fi.ID < fj.ID
			})

			v.Fixes = make([]FixJSON, 0, len(fixes))
			for _, fix := range fixes {
				fixJSON := FixJSON{
					ID:            fix.ID,
					Title:         fix.Title,
					Applicability: fix.Applicability.String(),
					IsPreferred:   fix.IsPreferred,
				}
				for _, edit := range fix.Edits {
					editJSON := FixEditJSON{
						LocationJSON: makeLocation(edit.Span, fs, opts.PathMode),
						NewText:      edit.NewText,
						OldText:      edit.OldText,
					}
					if opts.IncludePreviews {
						if preview, err := previewEdit(fs, edit); err == nil {
							editJSON.BeforeLines = preview.before
							editJSON.AfterLines = preview.after
						}
					}
					fixJSON.Edits = append(fixJSON.Edits, editJSON)
				}
				v.Fixes = append(v.Fixes, fixJSON)
			}
		}

		violations = append(violations, v)
	}

	return ReportJSON{Violations: violations, Count: len(violations)}
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildReport(bag, fs, opts))
}
