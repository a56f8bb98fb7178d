package callseq

import (
	"strings"
	"testing"

	"doccheck/internal/diag"
	"doccheck/internal/extract"
	"doccheck/internal/source"
)

func lines(text string) []extract.Line {
	var out []extract.Line
	off := uint32(0)
	for _, l := range strings.Split(text, "\n") {
		out = append(out, extract.Line{Text: l, Offset: off})
		off += uint32(len(l)) + 1
	}
	return out
}

func parseReport(t *testing.T, text string) ([]*Entry, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(0)
	entries := ParseLines(0, lines(text), diag.BagReporter{Bag: bag})
	return entries, bag
}

func TestCountScenario(t *testing.T) {
	const text = "array.count -> integer\narray.count(obj) -> integer\narray.count {|element| ... } -> integer"
	entries, bag := parseReport(t, text)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if bag.Len() != 0 {
		t.Errorf("got %d violations, want 0", bag.Len())
	}
	if got := FindRedundant(entries, nil); len(got) != 0 {
		t.Errorf("redundant pairs without a hint: %d", len(got))
	}

	if entries[0].Parens || len(entries[0].Args) != 0 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if len(entries[1].Args) != 1 || entries[1].Args[0].Name != "obj" {
		t.Errorf("entry 1 args = %+v", entries[1].Args)
	}
	if entries[2].Block == nil || entries[2].Block.Params[0] != "element" {
		t.Errorf("entry 2 block = %+v", entries[2].Block)
	}
}

func TestRespondToScenario(t *testing.T) {
	const text = "obj.respond_to?(symbol) -> true or false\nobj.respond_to?(symbol, include_all) -> true or false"
	entries, bag := parseReport(t, text)
	if len(entries) != 2 || bag.Len() != 0 {
		t.Fatalf("entries = %d, violations = %d", len(entries), bag.Len())
	}

	hint := HintFunc(func(arg string) (string, bool) {
		return "false", arg == "include_all"
	})
	pairs := FindRedundant(entries, hint)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	const want = "obj.respond_to?(symbol, include_all=false) -> true or false"
	if got := pairs[0].Merged.String(); got != want {
		t.Errorf("merged = %q, want %q", got, want)
	}

	ReportRedundant(pairs, entries, diag.BagReporter{Bag: bag})
	if got := bag.Count(diag.RedundantEntry); got != 1 {
		t.Fatalf("RedundantEntry count = %d, want 1", got)
	}
	d := bag.Items()[0]
	if d.Severity != diag.SevAdvisory {
		t.Errorf("severity = %v, want advisory", d.Severity)
	}
	if !strings.Contains(d.Message, want) {
		t.Errorf("message %q does not recommend %q", d.Message, want)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != want {
		t.Errorf("fixes = %+v", d.Fixes)
	}
}

func TestRedundantChain(t *testing.T) {
	const text = "io.gets -> string\nio.gets(sep) -> string\nio.gets(sep, limit) -> string"
	entries, bag := parseReport(t, text)
	if len(entries) != 3 || bag.Len() != 0 {
		t.Fatalf("entries = %d, violations = %d", len(entries), bag.Len())
	}
	defaults := map[string]string{"sep": "$/", "limit": "nil"}
	hint := HintFunc(func(arg string) (string, bool) {
		def, ok := defaults[arg]
		return def, ok
	})

	pairs := FindRedundant(entries, hint)
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}
	const want = "io.gets(sep=$/, limit=nil) -> string"
	for i, p := range pairs {
		if got := p.Merged.String(); got != want {
			t.Errorf("pair %d merged = %q, want %q", i, got, want)
		}
		if len(p.Chain) != 3 {
			t.Errorf("pair %d chain has %d entries, want 3", i, len(p.Chain))
		}
	}

	ReportRedundant(pairs, entries, diag.BagReporter{Bag: bag})
	if got := bag.Count(diag.RedundantEntry); got != 2 {
		t.Fatalf("RedundantEntry count = %d, want 2", got)
	}
	var fixes []diag.Fix
	for _, d := range bag.Items() {
		fixes = append(fixes, d.Fixes...)
	}
	if len(fixes) != 1 {
		t.Fatalf("got %d fixes, want one for the whole chain", len(fixes))
	}
	edit := fixes[0].Edits[0]
	if edit.NewText != want || edit.Span.Start != entries[0].Span.Start || edit.Span.End != entries[2].Span.End {
		t.Errorf("fix edit = %+v", edit)
	}
}

func TestRedundantNeedsHint(t *testing.T) {
	entries, _ := parseReport(t, "obj.m(a) -> nil\nobj.m(a, b) -> nil")
	no := HintFunc(func(string) (string, bool) { return "", false })
	if got := FindRedundant(entries, no); len(got) != 0 {
		t.Errorf("pairs = %d without a confirming hint", len(got))
	}
}

func TestRedundantRequiresSameShape(t *testing.T) {
	yes := HintFunc(func(string) (string, bool) { return "", true })
	tests := []string{
		"obj.m(a) -> nil\nobj.m(a, b) -> obj",
		"obj.m(a) -> nil\nobj.m(b, c) -> nil",
		"obj.m(a) -> nil\nobj.m(a, b, c) -> nil",
		"obj.m(a) -> nil\nobj.m(a, *rest) -> nil",
		"obj.m(a) {|x| ... } -> nil\nobj.m(a, b) -> nil",
	}
	for _, text := range tests {
		entries, _ := parseReport(t, text)
		if got := FindRedundant(entries, yes); len(got) != 0 {
			t.Errorf("%q: got %d pairs, want 0", text, len(got))
		}
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []string{
		"array.count -> integer",
		"array.count(obj) -> integer",
		"array.count {|element| ... } -> integer",
		"obj.respond_to?(symbol, include_all=false) -> true or false",
		"hash.each_pair {|key, value| ... } -> self",
		"Array.new(size=0, default=nil) -> new_array",
		"array[index] -> object or nil",
		"array[index] = object -> object",
		"array + other_array -> new_array",
		"array <=> other_array -> integer or nil",
		"Integer(object, base=0, exception: true) -> integer or nil",
		"File.join(*strings) -> string",
		"hash.to_a -> [key, value]",
		"obj.public_send(name, ...) -> object",
		"rand -> float",
		"loop { ... } -> object",
		"str.split(pattern=$;, limit=0) -> array",
		"range.step(n=1) -> Float::INFINITY",
		"nil.to_a -> []",
		"nil.to_h -> {}",
		"hash.default = value -> object",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			e, err := ParseLine(text)
			if err != nil {
				t.Fatalf("ParseLine: %v", err)
			}
			first := e.String()
			again, err := ParseLine(first)
			if err != nil {
				t.Fatalf("reparse %q: %v", first, err)
			}
			if second := again.String(); second != first {
				t.Errorf("not idempotent: %q then %q", first, second)
			}
			if squash(first) != squash(text) {
				t.Errorf("rendered %q, want %q modulo whitespace", first, text)
			}
		})
	}
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestAttributeWriter(t *testing.T) {
	e, err := ParseLine("hash.default = value -> object")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if e.Form != FormCall || e.Method != "default=" || e.Assign == nil || e.Assign.Name != "value" {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Returns) != 1 || e.Returns[0].Name != "object" {
		t.Errorf("returns = %+v", e.Returns)
	}
}

func TestEmptyLiteralReturns(t *testing.T) {
	for text, want := range map[string]string{"nil.to_a -> []": "[]", "nil.to_h -> {}": "{}"} {
		e, err := ParseLine(text)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", text, err)
		}
		if len(e.Returns) != 1 || e.Returns[0].Name != want {
			t.Errorf("%q returns = %+v, want %s", text, e.Returns, want)
		}
	}
}

func TestNormalizesSeparators(t *testing.T) {
	e, err := ParseLine("obj <=> other  →  -1, 0, +1, or nil")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if got := e.String(); got != "obj <=> other -> -1 or 0 or +1 or nil" {
		t.Errorf("String = %q", got)
	}
}

func TestSyntaxErrorsContinue(t *testing.T) {
	const text = "array.count -> integer\narray.count(obj integer\narray.size -> integer"
	entries, bag := parseReport(t, text)
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
	if got := bag.Count(diag.CallSeqSyntaxError); got != 1 {
		t.Fatalf("CallSeqSyntaxError count = %d, want 1", got)
	}
	d := bag.Items()[0]
	secondLine := uint32(len("array.count -> integer\n"))
	if d.Primary.Start < secondLine || d.Primary.End != secondLine+uint32(len("array.count(obj integer")) {
		t.Errorf("span = %v, want inside the second line", d.Primary)
	}
}

func TestMissingArrowIsSyntaxError(t *testing.T) {
	if _, err := ParseLine("array.clear"); err == nil {
		t.Error("expected a syntax error for an entry without returns")
	}
	if _, err := ParseLine("obj.m(a=) -> nil"); err == nil {
		t.Error("expected a syntax error for an empty default")
	}
}

func TestBlockPlaceholder(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"array.each {|element| ... } -> self", 0},
		{"array.each {|element| block } -> self", 1},
		{"array.each {|element| code } -> self", 1},
		{"array.each {|element| } -> self", 1},
		{"array.each {|element| … } -> self", 1},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, bag := parseReport(t, tt.text)
			if got := bag.Count(diag.BlockPlaceholderError); got != tt.want {
				t.Errorf("BlockPlaceholderError count = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReceiverNaming(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"array.clear -> self", 0},
		{"array.clear -> array", 1},
		{"array.compact! -> array or nil", 1},
		{"array.fill(obj) -> array or array", 1},
		{"obj.tap {|x| ... } -> receiver", 1},
		{"Array.try_convert(object) -> Array or nil", 0},
		{"array.dup -> new_array", 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, bag := parseReport(t, tt.text)
			if got := bag.Count(diag.ReceiverNamingError); got != tt.want {
				t.Fatalf("ReceiverNamingError count = %d, want %d", got, tt.want)
			}
			if tt.want == 0 {
				return
			}
			d := bag.Items()[0]
			if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "self" {
				t.Errorf("fixes = %+v", d.Fixes)
			}
		})
	}
}

func TestReceiverNamingOnePerEntry(t *testing.T) {
	const text = "array.clear -> array\narray.fill(obj) -> array\narray.size -> integer"
	_, bag := parseReport(t, text)
	if got := bag.Count(diag.ReceiverNamingError); got != 2 {
		t.Errorf("ReceiverNamingError count = %d, want 2", got)
	}
}

func TestSpansAreAbsolute(t *testing.T) {
	ls := []extract.Line{{Text: "  array.clear -> array", Offset: 100}}
	bag := diag.NewBag(0)
	entries := ParseLines(source.FileID(3), ls, diag.BagReporter{Bag: bag})
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Span.Start != 102 || entries[0].Span.File != 3 {
		t.Errorf("entry span = %v", entries[0].Span)
	}
	ret := entries[0].Returns[0].Span
	if ret.Start != 117 || ret.End != 122 {
		t.Errorf("return span = %v, want 117-122", ret)
	}
}
