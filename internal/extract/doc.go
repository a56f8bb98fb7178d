// Package extract scans source units and yields the documented entities
// (classes, modules, methods) together with the comment block attached to
// each declaration.
//
// The comment style is chosen by the unit's language tag:
//
//   - source.LangC: fenced /* ... */ comments preceding C function
//     definitions. Functions become method entities only when an
//     rb_define_method-family call binds them to a name; classes and modules
//     come from rb_define_class / rb_define_module assignments. A
//     "Document-method:" or "Document-class:" line anchors a comment that is
//     not adjacent to its declaration.
//   - source.LangRuby: '#' line comments directly preceding class, module
//     and def lines. Ownership follows class/module nesting by indentation.
//
// An unterminated comment is reported as diag.MalformedComment at its
// opening delimiter and scanning of the unit stops there.
package extract
