package rules

import (
	"strings"
	"testing"

	"doccheck/internal/diag"
	"doccheck/internal/extract"
	"doccheck/internal/source"
)

func check(t *testing.T, name, src string, ann Annotations) *diag.Bag {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(name, []byte(src)))
	bag := diag.NewBag(0)
	r := diag.BagReporter{Bag: bag}
	entities := extract.Collect(file, r)
	ctx := &Context{File: file, Options: DefaultOptions(), Annotations: ann}
	NewEngine().Check(ctx, entities, r)
	return bag
}

// cMethod wraps comment lines into a documented C method bound as Array#name.
func cMethod(name string, comment ...string) string {
	var b strings.Builder
	b.WriteString("/*\n")
	for _, l := range comment {
		if l == "" {
			b.WriteString(" *\n")
			continue
		}
		b.WriteString(" *  " + l + "\n")
	}
	b.WriteString(" */\nstatic VALUE\nrb_ary_" + strings.TrimRight(name, "?!") + "(VALUE ary)\n{\n    return ary;\n}\n\n")
	b.WriteString("void\nInit_Array(void)\n{\n    rb_define_method(rb_cArray, \"" + name + "\", rb_ary_" + strings.TrimRight(name, "?!") + ", 0);\n}\n")
	return b.String()
}

func codes(bag *diag.Bag) string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, d.Code.String())
	}
	return strings.Join(out, ",")
}

func TestEmptyCommentHasNoViolations(t *testing.T) {
	tests := []struct {
		name, file, src string
	}{
		{"c method", "array.c", cMethod("count")},
		{"ruby method", "set.rb", "class Set\n  def size\n  end\nend\n"},
		{"nodoc", "set.rb", "# :nodoc:\ndef helper\nend\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.src
			if tt.file == "array.c" {
				src = strings.Replace(src, "/*\n */\n", "", 1)
			}
			if bag := check(t, tt.file, src, nil); bag.Len() != 0 {
				t.Errorf("violations: %s", codes(bag))
			}
		})
	}
}

func TestCanonicalOrderHasNoViolations(t *testing.T) {
	src := cMethod("count",
		"call-seq:",
		"  array.count -> integer",
		"  array.count(obj) -> integer",
		"  array.count {|element| ... } -> integer",
		"",
		"Returns a count of specified elements.",
		"",
		"With no argument and no block, returns the count of all elements.",
		"",
		"  [0, 1, 2].count # => 3",
		"",
		"[+obj+] the object to compare.",
		"",
		"Raises TypeError if +obj+ cannot be compared.",
		"",
		"Array#size is an alias for Array#count.",
		"",
		"Related: #length, #tally.",
	)
	bag := check(t, "array.c", src, nil)
	if got := bag.Count(diag.OutOfOrderSection); got != 0 {
		t.Errorf("OutOfOrderSection count = %d, want 0", got)
	}
	if bag.Len() != 0 {
		t.Errorf("violations: %s", codes(bag))
	}
}

func TestOutOfOrderContinues(t *testing.T) {
	src := "# Returns the size.\n#\n# Related: #length.\n#\n# Set#count is an alias for Set#size.\n#\n# Raises ArgumentError never.\ndef size\nend\n"
	bag := check(t, "set.rb", src, nil)
	if got := bag.Count(diag.OutOfOrderSection); got != 2 {
		t.Errorf("OutOfOrderSection count = %d, want 2 (%s)", got, codes(bag))
	}
}

func TestCallSeqAfterSynopsisIsOutOfOrder(t *testing.T) {
	src := cMethod("count",
		"Returns a count.",
		"",
		"call-seq:",
		"  array.count -> integer",
	)
	bag := check(t, "array.c", src, nil)
	if got := bag.Count(diag.OutOfOrderSection); got != 1 {
		t.Errorf("OutOfOrderSection count = %d, want 1 (%s)", got, codes(bag))
	}
}

func TestTooManyRelated(t *testing.T) {
	tests := []struct {
		related string
		want    int
	}{
		{"Related: #a, #b, #c, #d", 1},
		{"Related: #a, #b, #c", 0},
		{"Related: #a, #b, #c, #d, #e", 1},
		{"Related: see {Methods for Fetching}[rdoc-ref:Array@Methods+for+Fetching].", 0},
		{"Related: Array#last and Array#take (see also Array#drop).", 0},
		{"Related: Array#last, Array#take, Array#drop and Array#first.", 1},
	}
	for _, tt := range tests {
		t.Run(tt.related, func(t *testing.T) {
			src := "# Returns the size.\n#\n# " + tt.related + "\ndef size\nend\n"
			bag := check(t, "set.rb", src, nil)
			if got := bag.Count(diag.TooManyRelated); got != tt.want {
				t.Errorf("TooManyRelated count = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRelatedLimitFromOptions(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("set.rb", []byte("# Returns.\n#\n# Related: #a, #b\ndef size\nend\n")))
	bag := diag.NewBag(0)
	r := diag.BagReporter{Bag: bag}
	ctx := &Context{File: file, Options: Options{MaxRelated: 1}}
	NewEngine(RelatedLimit{}).Check(ctx, extract.Collect(file, r), r)
	if got := bag.Count(diag.TooManyRelated); got != 1 {
		t.Errorf("TooManyRelated count = %d, want 1", got)
	}
}

func TestMissingSynopsis(t *testing.T) {
	src := cMethod("count",
		"call-seq:",
		"  array.count -> integer",
	)
	bag := check(t, "array.c", src, nil)
	if got := bag.Count(diag.MissingSynopsis); got != 1 {
		t.Errorf("MissingSynopsis count = %d, want 1 (%s)", got, codes(bag))
	}
}

func TestMissingCallSeqOnlyInC(t *testing.T) {
	bag := check(t, "array.c", cMethod("count", "Returns a count."), nil)
	if got := bag.Count(diag.MissingCallSeq); got != 1 {
		t.Errorf("C: MissingCallSeq count = %d, want 1", got)
	}
	bag = check(t, "set.rb", "# Returns a count.\ndef count\nend\n", nil)
	if got := bag.Count(diag.MissingCallSeq); got != 0 {
		t.Errorf("Ruby: MissingCallSeq count = %d, want 0", got)
	}
}

func TestCallSeqViolationsReachReport(t *testing.T) {
	src := cMethod("fill",
		"call-seq:",
		"  array.fill(obj) -> array",
		"  array.fill {|index| block } -> self",
		"  array.fill(obj, -> self",
		"",
		"Fills the array.",
	)
	bag := check(t, "array.c", src, nil)
	for _, c := range []diag.Code{diag.ReceiverNamingError, diag.BlockPlaceholderError, diag.CallSeqSyntaxError} {
		if got := bag.Count(c); got != 1 {
			t.Errorf("%s count = %d, want 1 (%s)", c, got, codes(bag))
		}
	}
}

func TestRedundantEntryFromProse(t *testing.T) {
	src := cMethod("respond_to?",
		"call-seq:",
		"  obj.respond_to?(symbol) -> true or false",
		"  obj.respond_to?(symbol, include_all) -> true or false",
		"",
		"Returns true if _obj_ responds to the given method.",
		"",
		"+include_all+ defaults to +false+.",
	)
	bag := check(t, "object.c", src, nil)
	if got := bag.Count(diag.RedundantEntry); got != 1 {
		t.Fatalf("RedundantEntry count = %d, want 1 (%s)", got, codes(bag))
	}
	for _, d := range bag.Items() {
		if d.Code != diag.RedundantEntry {
			continue
		}
		if d.Severity != diag.SevAdvisory {
			t.Errorf("severity = %v", d.Severity)
		}
		if !strings.Contains(d.Message, "obj.respond_to?(symbol, include_all=false) -> true or false") {
			t.Errorf("message = %q", d.Message)
		}
	}
	if bag.HasErrors() {
		t.Errorf("unexpected errors: %s", codes(bag))
	}
}

func TestRedundantNeedsProse(t *testing.T) {
	src := cMethod("respond_to?",
		"call-seq:",
		"  obj.respond_to?(symbol) -> true or false",
		"  obj.respond_to?(symbol, include_all) -> true or false",
		"",
		"Returns true if _obj_ responds to the given method.",
	)
	bag := check(t, "object.c", src, nil)
	if got := bag.Count(diag.RedundantEntry); got != 0 {
		t.Errorf("RedundantEntry count = %d, want 0", got)
	}
}

func TestNewInstanceNaming(t *testing.T) {
	dup := cMethod("dup",
		"call-seq:",
		"  array.dup -> array_copy",
		"",
		"Returns a copy.",
	)
	newDup := strings.Replace(dup, "array_copy", "new_array", 1)

	tests := []struct {
		name string
		src  string
		ann  Annotations
		want int
	}{
		{"no annotation skips the check", dup, nil, 0},
		{"unknown method skips the check", dup, AnnotationMap{"Array#other": true}, 0},
		{"new instance without prefix", dup, AnnotationMap{"Array#dup": true}, 1},
		{"new instance with prefix", newDup, AnnotationMap{"Array#dup": true}, 0},
		{"existing object with prefix", newDup, AnnotationMap{"Array#dup": false}, 1},
		{"existing object without prefix", dup, AnnotationMap{"Array#dup": false}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := check(t, "array.c", tt.src, tt.ann)
			if got := bag.Count(diag.ReceiverNamingError); got != tt.want {
				t.Errorf("ReceiverNamingError count = %d, want %d (%s)", got, tt.want, codes(bag))
			}
		})
	}
}

func TestCharset(t *testing.T) {
	bag := check(t, "array.c", cMethod("count",
		"call-seq:",
		"  array.count -> integer",
		"",
		"Returns a count — or zero.",
	), nil)
	if got := bag.Count(diag.NonASCIIComment); got != 1 {
		t.Fatalf("NonASCIIComment count = %d, want 1", got)
	}
	var d diag.Diagnostic
	for _, it := range bag.Items() {
		if it.Code == diag.NonASCIIComment {
			d = it
		}
	}
	if d.Severity != diag.SevError {
		t.Errorf("C severity = %v, want error", d.Severity)
	}
	if !strings.Contains(d.Message, "U+2014 EM DASH") {
		t.Errorf("message = %q", d.Message)
	}
	if d.Primary.Len() != 3 {
		t.Errorf("span length = %d, want 3", d.Primary.Len())
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "--" {
		t.Errorf("fixes = %+v", d.Fixes)
	}

	bag = check(t, "set.rb", "# Returns the café size.\ndef size\nend\n", nil)
	if got := bag.Count(diag.NonASCIIComment); got != 1 {
		t.Fatalf("Ruby NonASCIIComment count = %d, want 1", got)
	}
	if bag.HasErrors() {
		t.Error("non-ASCII in Ruby must be advisory")
	}
}

func TestClassChecks(t *testing.T) {
	src := "# Related: #a, #b, #c, #d\nclass Set\nend\n"
	bag := check(t, "set.rb", src, nil)
	if got := bag.Count(diag.TooManyRelated); got != 1 {
		t.Errorf("TooManyRelated count = %d, want 1", got)
	}
	if got := bag.Count(diag.MissingSynopsis); got != 1 {
		t.Errorf("MissingSynopsis count = %d, want 1", got)
	}
	if got := bag.Count(diag.MissingCallSeq); got != 0 {
		t.Errorf("classes never need a call-seq")
	}
}
