package trace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq returns the next event sequence number.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID returns a fresh span ID. IDs start at 1.
func NextSpanID() uint64 { return spanCounter.Add(1) }

// goroutineID reads the id from the "goroutine 123 [running]:" stack header.
func goroutineID() uint64 {
	var buf [64]byte
	header, ok := bytes.CutPrefix(buf[:runtime.Stack(buf[:], false)], []byte("goroutine "))
	if !ok {
		return 0
	}
	id, _, _ := bytes.Cut(header, []byte(" "))
	gid, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

func emitting(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

// event stamps a new event with the time, sequence number and goroutine.
func event(kind Kind, scope Scope, name string) *Event {
	return &Event{
		Time:  time.Now(),
		Seq:   NextSeq(),
		Kind:  kind,
		Scope: scope,
		GID:   goroutineID(),
		Name:  name,
	}
}

// Span is one traced operation, such as a phase or the check of a unit.
// A span whose scope is filtered out is inert; all methods are safe on it.
type Span struct {
	tracer  Tracer
	begin   Event
	started time.Time
	extra   map[string]string
}

// Begin emits the begin event of a span under parent (0 for a root span).
// It never returns nil.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !emitting(t, scope) {
		return &Span{}
	}
	ev := event(KindSpanBegin, scope, name)
	ev.SpanID = NextSpanID()
	ev.ParentID = parent
	t.Emit(ev)
	return &Span{tracer: t, begin: *ev, started: ev.Time}
}

// End emits the end event, carrying detail and the extras, and returns how
// long the span took.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	ev := event(KindSpanEnd, s.begin.Scope, s.begin.Name)
	ev.SpanID = s.begin.SpanID
	ev.ParentID = s.begin.ParentID
	ev.GID = s.begin.GID
	ev.Detail = detail
	ev.Extra = s.extra
	s.tracer.Emit(ev)
	return ev.Time.Sub(s.started)
}

// WithExtra attaches a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.begin.SpanID
}

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !emitting(t, scope) {
		return
	}
	ev := event(KindPoint, scope, name)
	ev.ParentID = parent
	ev.Detail = detail
	t.Emit(ev)
}
