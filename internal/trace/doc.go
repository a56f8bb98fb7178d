// Package trace records where a doccheck run spends its time.
//
// A tracer is carried through the run in a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "unit:"+path, parentID)
//	defer span.End("")
//
// Enable it from the command line:
//
//	doccheck check --trace=- --trace-level=detail ext/
//
// # Tracers
//
//   - Nop: the disabled tracer
//   - StreamTracer: writes every event immediately (file or stderr)
//   - RingTracer: keeps the last N events for a dump after a failure
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// Levels decide which scopes are emitted. LevelPhase shows the run and its
// phases (load, check, report), LevelDetail adds one span per source unit and
// LevelDebug adds one span per documented entity.
package trace
