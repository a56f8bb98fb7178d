// Package diag defines the violation model shared by every checker phase.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by the
//     comment extractor, the call-seq parser, the structural rule engine and
//     the link/alias analyzer.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     violations without coupling to storage or formatting.
//   - Model fix suggestions as structured text edits that the fix engine can
//     apply.
//
// # Scope
//
// Package diag does no formatting beyond the golden short form, no IO and no
// CLI integration. Rendering lives in internal/diagfmt, fix application in
// internal/fix and orchestration in internal/driver.
//
// # Data model
//
// Diagnostic is the violation record:
//
//   - Severity – Advisory or Error (severity.go).
//   - Code – the rule identifier (codes.go); Code.String() is the rule id
//     printed in reports, Code.ID() the compact numeric form.
//   - Message – short and actionable.
//   - Primary – the span the violation is anchored to. Spans are copied by
//     value so source text may be dropped after reporting.
//   - Notes – secondary spans, e.g. where an alias was mentioned.
//   - Fixes – optional edits.
//
// Producers either call Reporter.Report directly or use ReportBuilder
// (ReportError / ReportAdvisory) to chain notes and fixes before Emit.
package diag
