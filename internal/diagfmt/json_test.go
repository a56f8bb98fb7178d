package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("/*\n *  call-seq:\n *    array.each {|x| block } -> array\n */\n")
	fileID := fs.AddVirtual("ext/array.c", content)

	bag := diag.NewBag(10)
	bag.Add(diag.New(
		diag.SevError,
		diag.BlockPlaceholderError,
		source.Span{File: fileID, Start: 34, End: 46},
		"block body must be \"...\"",
	))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output ReportJSON
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || len(output.Violations) != 1 {
		t.Fatalf("Expected 1 violation, got count=%d len=%d", output.Count, len(output.Violations))
	}

	v := output.Violations[0]
	want := ViolationJSON{
		LocationJSON: LocationJSON{Path: "array.c", Line: 3, Column: 18, EndLine: 3, EndColumn: 30},
		RuleID:       "BlockPlaceholderError",
		Code:         "CSQ2002",
		Severity:     "error",
		Message:      "block body must be \"...\"",
	}
	if v.LocationJSON != want.LocationJSON {
		t.Errorf("location = %+v, want %+v", v.LocationJSON, want.LocationJSON)
	}
	if v.RuleID != want.RuleID || v.Code != want.Code || v.Severity != want.Severity || v.Message != want.Message {
		t.Errorf("violation = %+v, want %+v", v, want)
	}
}

func TestJSONFieldNames(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("set.rb", []byte("# x\n"))

	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.SevAdvisory, diag.RedundantEntry, source.Span{File: fileID, Start: 2, End: 3}, "redundant"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(buf.Bytes(), &generic); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	violations, ok := generic["violations"].([]any)
	if !ok || len(violations) != 1 {
		t.Fatalf("violations = %v", generic["violations"])
	}
	record, ok := violations[0].(map[string]any)
	if !ok {
		t.Fatalf("record = %v", violations[0])
	}
	for _, key := range []string{"path", "line", "column", "end_line", "end_column", "rule_id", "severity", "message"} {
		if _, ok := record[key]; !ok {
			t.Errorf("record misses %q: %v", key, record)
		}
	}
	for _, key := range []string{"notes", "fixes"} {
		if _, ok := record[key]; ok {
			t.Errorf("record should omit empty %q", key)
		}
	}
	if record["severity"] != "advisory" {
		t.Errorf("severity = %v", record["severity"])
	}
}

func TestJSONWithNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("set.rb", []byte("# See #size and #size."))

	bag := diag.NewBag(10)
	d := diag.New(diag.SevAdvisory, diag.ExcessiveAutoLinkCandidate, source.Span{File: fileID, Start: 16, End: 21}, "repeated")
	d = d.WithNote(source.Span{File: fileID, Start: 6, End: 11}, "first reference")
	d = d.WithFix("escape reference", diag.TextEdit{Span: source.Span{File: fileID, Start: 16, End: 16}, NewText: `\`})
	bag.Add(d)

	var buf bytes.Buffer
	opts := JSONOpts{
		PathMode:        PathModeBasename,
		IncludeNotes:    true,
		IncludeFixes:    true,
		IncludePreviews: true,
	}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output ReportJSON
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	v := output.Violations[0]

	if len(v.Notes) != 1 {
		t.Fatalf("Expected 1 note, got %d", len(v.Notes))
	}
	if v.Notes[0].Message != "first reference" || v.Notes[0].Column != 7 {
		t.Errorf("note = %+v", v.Notes[0])
	}

	if len(v.Fixes) != 1 || len(v.Fixes[0].Edits) != 1 {
		t.Fatalf("Expected 1 fix with 1 edit, got %+v", v.Fixes)
	}
	fix := v.Fixes[0]
	if fix.Title != "escape reference" || fix.Applicability != "always-safe" {
		t.Errorf("fix = %+v", fix)
	}
	edit := fix.Edits[0]
	if edit.NewText != `\` || edit.Column != 17 {
		t.Errorf("edit = %+v", edit)
	}
	if len(edit.AfterLines) != 1 || edit.AfterLines[0] != `# See #size and \#size.` {
		t.Errorf("after lines = %q", edit.AfterLines)
	}
}

func TestJSONMaxAndFiltering(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("set.rb", []byte("# a\n# b\n# c\n"))

	bag := diag.NewBag(10)
	for i := range 3 {
		start := uint32(i * 4) // #nosec G115
		d := diag.New(diag.SevError, diag.MissingSynopsis, source.Span{File: fileID, Start: start, End: start + 3}, "missing")
		d = d.WithNote(source.Span{File: fileID, Start: start, End: start + 1}, "here")
		bag.Add(d)
	}

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 2}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var output ReportJSON
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if output.Count != 2 {
		t.Errorf("count = %d, want 2", output.Count)
	}
	for _, v := range output.Violations {
		if len(v.Notes) != 0 {
			t.Errorf("notes should be omitted without IncludeNotes: %+v", v.Notes)
		}
	}
	if output.Violations[1].Line != 2 {
		t.Errorf("second violation line = %d, want 2", output.Violations[1].Line)
	}
}

func TestJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, diag.NewBag(0), source.NewFileSet(), JSONOpts{}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	if got := buf.String(); got != "{\n  \"violations\": [],\n  \"count\": 0\n}\n" {
		t.Errorf("output = %q", got)
	}
}
