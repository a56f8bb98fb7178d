package extract

import (
	"testing"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

func collect(t *testing.T, name, src string) ([]*Entity, *diag.Bag, *source.File) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(name, []byte(src)))
	bag := diag.NewBag(0)
	return Collect(file, diag.BagReporter{Bag: bag}), bag, file
}

func find(entities []*Entity, full string) *Entity {
	for _, e := range entities {
		if e.FullName() == full {
			return e
		}
	}
	return nil
}

const arrayC = `#include "ruby.h"

VALUE rb_cArray;

/*
 *  call-seq:
 *    array.count -> integer
 *    array.count(obj) -> integer
 *
 *  Returns a count of specified elements.
 */

static VALUE
rb_ary_count(int argc, VALUE *argv, VALUE ary)
{
    return INT2FIX(0); /* not a doc comment */
}

static VALUE
rb_ary_length(VALUE ary)
{
    return LONG2NUM(RARRAY_LEN(ary));
}

static VALUE rb_ary_helper(VALUE ary);

/*
 * Document-method: Array#each_entry
 *
 * Iterates over entries.
 */

/*
 *  Arrays are ordered collections.
 */
void
Init_Array(void)
{
    // rb_define_method(rb_cArray, "ignored", rb_ary_ignored, 0);
    rb_cArray  = rb_define_class("Array", rb_cObject);
    rb_define_method(rb_cArray, "count", rb_ary_count, -1);
    rb_define_method(rb_cArray, "length", rb_ary_length, 0);
    rb_define_method(rb_cArray, "size", rb_ary_length, 0);
    rb_define_singleton_method(rb_cArray, "try_convert", rb_ary_s_try_convert, 1);
    const char *s = "/* not a comment";
}
`

func TestCExtraction(t *testing.T) {
	entities, bag, _ := collect(t, "array.c", arrayC)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diag.FormatShortDiagnostics(bag.Items(), nil, false))
	}

	count := find(entities, "Array#count")
	if count == nil {
		t.Fatal("Array#count not extracted")
	}
	if count.Comment.Empty() {
		t.Fatal("Array#count lost its comment")
	}
	if got := count.Comment.Lines[0].Text; got != " call-seq:" {
		t.Errorf("first line = %q, want %q", got, " call-seq:")
	}
	if got := count.Comment.Lines[len(count.Comment.Lines)-1].Text; got != " Returns a count of specified elements." {
		t.Errorf("last line = %q", got)
	}

	length := find(entities, "Array#length")
	if length == nil {
		t.Fatal("Array#length not extracted")
	}
	if !length.Comment.Empty() {
		t.Errorf("Array#length should have an empty comment, got %q", length.Comment.Text())
	}
	if len(length.Aliases) != 1 || length.Aliases[0] != "size" {
		t.Errorf("Aliases = %v, want [size]", length.Aliases)
	}
	if find(entities, "Array#size") != nil {
		t.Error("size must be an alias, not a separate entity")
	}
	if find(entities, "Array#ignored") != nil {
		t.Error("line comment binding must be ignored")
	}

	array := find(entities, "Array")
	if array == nil || array.Kind != KindClass {
		t.Fatalf("Array class not extracted: %+v", array)
	}
	if array.Comment.Empty() {
		t.Error("class comment not attached")
	}

	entry := find(entities, "Array#each_entry")
	if entry == nil {
		t.Fatal("Document-method entity not extracted")
	}
	if got := entry.Comment.Text(); got != "Iterates over entries." {
		t.Errorf("directive comment = %q", got)
	}

	for i := 1; i < len(entities); i++ {
		if entities[i-1].Decl.Start > entities[i].Decl.Start {
			t.Fatalf("entities out of declaration order at %d", i)
		}
	}
}

func TestCDirectiveAnchorsNonAdjacentComment(t *testing.T) {
	src := `/*
 * Document-method: Array#count
 *
 * Returns a count.
 */

/* unrelated */
int x;

static VALUE
rb_ary_count(VALUE ary)
{
}

void Init(void) {
    rb_define_method(rb_cArray, "count", rb_ary_count, 0);
}
`
	entities, _, _ := collect(t, "array.c", src)
	count := find(entities, "Array#count")
	if count == nil {
		t.Fatal("Array#count not extracted")
	}
	if got := count.Comment.Text(); got != "Returns a count." {
		t.Errorf("comment = %q, want directive text", got)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	src := `/*
 * Returns a count.

static VALUE
rb_ary_count(VALUE ary)
{
}

void Init(void) {
    rb_define_method(rb_cArray, "count", rb_ary_count, 0);
}
`
	entities, bag, _ := collect(t, "array.c", src)
	if got := bag.Count(diag.MalformedComment); got != 1 {
		t.Fatalf("MalformedComment count = %d, want 1", got)
	}
	if bag.Len() != 1 {
		t.Errorf("bag has %d diagnostics, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if d.Primary.Start != 0 || d.Primary.End != 2 {
		t.Errorf("span = %v, want the opening delimiter", d.Primary)
	}
	if len(entities) != 0 {
		t.Errorf("got %d entities, want none after the unterminated comment", len(entities))
	}
}

func TestNoDoc(t *testing.T) {
	src := `/* :nodoc: */
static VALUE
rb_ary_hidden(VALUE ary)
{
}

void Init(void) {
    rb_define_method(rb_cArray, "hidden", rb_ary_hidden, 0);
}
`
	entities, _, _ := collect(t, "array.c", src)
	e := find(entities, "Array#hidden")
	if e == nil {
		t.Fatal("Array#hidden not extracted")
	}
	if !e.NoDoc || !e.Comment.Empty() {
		t.Errorf("NoDoc = %v, comment = %q", e.NoDoc, e.Comment.Text())
	}
}

const setRb = `#!/usr/bin/env ruby
# frozen_string_literal: true

# A collection of unordered values.
class Set
  # Creates a new set.
  #
  #   Set.new([1, 2])
  def initialize(enum = nil)
    @hash = {}
  end

  def size # :nodoc:
    @hash.size
  end

  class << self
    # Creates a set from the given objects.
    def [](*ary)
      new(ary)
    end
  end

  # Detached comment.

  def empty?
    TEMPLATE = <<~EOS
      def not_a_method
    EOS
  end

  #--
  # Internal notes.
  #++
  # Returns a frozen copy.
  def self.frozen_copy
  end

  # Comparison helpers.
  module Compare
    # Returns true if equal.
    def eql?(other)
    end
  end
end

=begin
def commented_out
end
=end

# Top-level helper.
def helper
end
`

func TestRubyExtraction(t *testing.T) {
	entities, bag, _ := collect(t, "set.rb", setRb)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}

	tests := []struct {
		full    string
		kind    Kind
		comment string
		nodoc   bool
	}{
		{"Set", KindClass, "A collection of unordered values.", false},
		{"Set#initialize", KindMethod, "Creates a new set.\n\n  Set.new([1, 2])", false},
		{"Set#size", KindMethod, "", true},
		{"Set.[]", KindMethod, "Creates a set from the given objects.", false},
		{"Set#empty?", KindMethod, "", false},
		{"Set.frozen_copy", KindMethod, "Returns a frozen copy.", false},
		{"Set::Compare", KindModule, "Comparison helpers.", false},
		{"Set::Compare#eql?", KindMethod, "Returns true if equal.", false},
		{"helper", KindMethod, "Top-level helper.", false},
	}
	for _, tt := range tests {
		t.Run(tt.full, func(t *testing.T) {
			e := find(entities, tt.full)
			if e == nil {
				t.Fatalf("%s not extracted", tt.full)
			}
			if e.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", e.Kind, tt.kind)
			}
			if got := e.Comment.Text(); got != tt.comment {
				t.Errorf("comment = %q, want %q", got, tt.comment)
			}
			if e.NoDoc != tt.nodoc {
				t.Errorf("NoDoc = %v, want %v", e.NoDoc, tt.nodoc)
			}
		})
	}

	for _, bogus := range []string{"Set#not_a_method", "commented_out", "Set#commented_out"} {
		if find(entities, bogus) != nil {
			t.Errorf("%s must not be extracted", bogus)
		}
	}
	if got := len(entities); got != len(tests) {
		t.Errorf("got %d entities, want %d", got, len(tests))
	}
}

func TestRubyUnterminatedBegin(t *testing.T) {
	_, bag, _ := collect(t, "x.rb", "# Doc.\ndef a\nend\n=begin\nstuff\n")
	if got := bag.Count(diag.MalformedComment); got != 1 {
		t.Errorf("MalformedComment count = %d, want 1", got)
	}
}

func TestEntitiesRestartable(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("array.c", []byte(arrayC)))
	seq := Entities(file, nil)

	var first, second []string
	for e := range seq {
		first = append(first, e.FullName())
	}
	for e := range seq {
		second = append(second, e.FullName())
	}
	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("restart mismatch: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entity %d: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestUnknownLanguageYieldsNothing(t *testing.T) {
	entities, _, _ := collect(t, "README.md", "# Title\n")
	if len(entities) != 0 {
		t.Errorf("got %d entities for an unclassified unit", len(entities))
	}
}
