package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"doccheck/internal/diag"
	"doccheck/internal/fix"
	"doccheck/internal/source"
)

// TestPathModes checks how each path mode renders the unit path.
func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("/*\n * Returns the size — in bytes.\n */\n")
	fileID := fs.AddVirtual("/home/user/project/ext/size.c", content)
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	bag.Add(diag.New(
		diag.SevError,
		diag.NonASCIIComment,
		source.Span{File: fileID, Start: 23, End: 26},
		"non US-ASCII character U+2014 EM DASH in comment",
	))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/ext/size.c:2:21"},
		{"Relative path", PathModeRelative, "ext/size.c:2:21"},
		{"Basename only", PathModeBasename, "size.c:2:21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Color: false, Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "error NonASCIIComment:") {
				t.Errorf("Expected severity and rule id in output, got:\n%s", output)
			}
			if !strings.Contains(output, "1 | /*") {
				t.Errorf("Expected context line in output, got:\n%s", output)
			}
		})
	}
}

// TestPathModeAuto checks the automatic choice between full path and basename.
func TestPathModeAuto(t *testing.T) {
	fs := source.NewFileSet()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"Short path - as is", "lib/set.rb", "lib/set.rb"},
		{"Long absolute path - basename", "/very/long/absolute/path/to/some/nested/directory/set.rb", "set.rb:1:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileID := fs.AddVirtual(tt.path, []byte("# Returns the size.\n"))

			bag := diag.NewBag(10)
			bag.Add(diag.New(diag.SevAdvisory, diag.ExcessiveAutoLinkCandidate,
				source.Span{File: fileID, Start: 2, End: 9}, "Test advisory"))

			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeAuto})
			output := buf.String()

			if !strings.Contains(output, tt.expected) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.expected, output)
			}
			if !strings.Contains(output, "advisory ExcessiveAutoLinkCandidate") {
				t.Errorf("Expected advisory severity, got:\n%s", output)
			}
		})
	}
}

func TestPrettyCaret(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("set.rb", []byte("  # Related: #a, #b\n"))

	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.SevError, diag.TooManyRelated, source.Span{File: fileID, Start: 4, End: 11}, "too many"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, source and caret lines, got:\n%s", buf.String())
	}
	if lines[2] != "  |     ^~~~~~~" {
		t.Errorf("caret line = %q", lines[2])
	}
}

func TestPrettyGroupByFile(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.AddVirtual("a.rb", []byte("# x\n"))
	b := fs.AddVirtual("b.rb", []byte("# y\n"))

	bag := diag.NewBag(4)
	bag.Add(diag.New(diag.SevError, diag.MissingSynopsis, source.Span{File: a, Start: 0, End: 3}, "first"))
	bag.Add(diag.New(diag.SevError, diag.MissingSynopsis, source.Span{File: a, Start: 0, End: 1}, "second"))
	bag.Add(diag.New(diag.SevError, diag.MissingSynopsis, source.Span{File: b, Start: 0, End: 3}, "third"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, GroupByFile: true})
	output := buf.String()

	if got := strings.Count(output, "== a.rb =="); got != 1 {
		t.Errorf("a.rb header count = %d, want 1:\n%s", got, output)
	}
	if got := strings.Count(output, "== b.rb =="); got != 1 {
		t.Errorf("b.rb header count = %d, want 1:\n%s", got, output)
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("# Set#length is an alias for Set#size.\n")
	fileID := fs.AddVirtual("set.rb", content)

	bag := diag.NewBag(4)
	primary := source.Span{File: fileID, Start: 2, End: 12}
	d := diag.New(diag.SevError, diag.DuplicateAliasListing, primary, "documented separately")
	d = d.WithNote(source.Span{File: fileID, Start: 11, End: 15}, "alias mentioned here")
	d = d.WithFix("insert escape", diag.TextEdit{Span: source.Span{File: fileID, Start: 2, End: 2}, NewText: `\`})

	wrap := fix.ReplaceSpan(
		"mark as code",
		source.Span{File: fileID, Start: 2, End: 12},
		"+Set#length+",
		"Set#length",
		fix.WithID("wrap-code-001"),
	)
	d = d.WithFixSuggestion(wrap)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{
		PathMode:  PathModeBasename,
		ShowNotes: true,
		ShowFixes: true,
	})
	output := buf.String()

	if !strings.Contains(output, "note: set.rb:1:12: alias mentioned here") {
		t.Fatalf("expected note with location, got:\n%s", output)
	}
	if !strings.Contains(output, "fix #1: insert escape") {
		t.Fatalf("expected first fix entry, got:\n%s", output)
	}
	if !strings.Contains(output, `apply="\\"`) {
		t.Fatalf("expected fix edit apply preview, got:\n%s", output)
	}
	if !strings.Contains(output, "id=wrap-code-001") {
		t.Fatalf("expected fix id in output, got:\n%s", output)
	}
}

func TestPrettyFixPreview(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("example.rb", []byte("# See #size and #size."))

	bag := diag.NewBag(2)
	insertSpan := source.Span{File: fileID, Start: 16, End: 16}
	d := diag.New(diag.SevAdvisory, diag.ExcessiveAutoLinkCandidate, insertSpan, "repeated reference")
	d = d.WithFix("escape reference", diag.TextEdit{Span: insertSpan, NewText: `\`})
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{
		PathMode:    PathModeBasename,
		ShowFixes:   true,
		ShowPreview: true,
	})
	output := buf.String()

	if !strings.Contains(output, "preview:") {
		t.Fatalf("expected preview header in output, got:\n%s", output)
	}
	if !strings.Contains(output, "- # See #size and #size.") {
		t.Fatalf("expected before line in preview, got:\n%s", output)
	}
	if !strings.Contains(output, `+ # See #size and \#size.`) {
		t.Fatalf("expected after line in preview, got:\n%s", output)
	}
}

func TestPreviewEdit(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("array.c", []byte(" *   array.clear -> array\n *   array.fill(obj) -> array\n"))

	tests := []struct {
		name   string
		edit   diag.TextEdit
		before []string
		after  []string
	}{
		{
			name:   "single line",
			edit:   diag.TextEdit{Span: source.Span{File: fileID, Start: 20, End: 25}, NewText: "self"},
			before: []string{" *   array.clear -> array"},
			after:  []string{" *   array.clear -> self"},
		},
		{
			name:   "two lines merged",
			edit:   diag.TextEdit{Span: source.Span{File: fileID, Start: 5, End: 55}, NewText: "array.fill(obj=nil) -> self"},
			before: []string{" *   array.clear -> array", " *   array.fill(obj) -> array"},
			after:  []string{" *   array.fill(obj=nil) -> self"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := previewEdit(fs, tt.edit)
			if err != nil {
				t.Fatalf("previewEdit: %v", err)
			}
			if strings.Join(p.before, "|") != strings.Join(tt.before, "|") {
				t.Errorf("before = %q, want %q", p.before, tt.before)
			}
			if strings.Join(p.after, "|") != strings.Join(tt.after, "|") {
				t.Errorf("after = %q, want %q", p.after, tt.after)
			}
		})
	}

	if _, err := previewEdit(fs, diag.TextEdit{Span: source.Span{File: fileID, Start: 5, End: 500}}); err == nil {
		t.Error("expected an out of range error")
	}
}
