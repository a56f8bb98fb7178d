// Package fuzztests houses Go fuzz harnesses for the documentation pipeline
// (source -> extract -> rules and links) and the call-seq parser. They guard
// against panics, hangs and out-of-range spans on arbitrary input.
//
// Seeds come from the repository testdata and from a few inline snippets;
// the harnesses never write files.
package fuzztests
