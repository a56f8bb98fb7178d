package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeRun, false},
		{LevelError, ScopeRun, true},
		{LevelError, ScopePhase, false},
		{LevelPhase, ScopePhase, true},
		{LevelPhase, ScopeUnit, false},
		{LevelDetail, ScopeUnit, true},
		{LevelDetail, ScopeEntity, false},
		{LevelDebug, ScopeEntity, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "debug", "DEBUG"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q) error: %v", s, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) should fail")
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)

	run := Begin(tr, ScopeRun, "check", 0)
	unit := Begin(tr, ScopeUnit, "unit:ext/array.c", run.ID())
	entity := Begin(tr, ScopeEntity, "entity:Array#size", unit.ID())
	entity.End("")
	unit.WithExtra("violations", "2").End("")
	run.End("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 events (entity scope filtered), got %d:\n%s", len(lines), buf.String())
	}

	var ev struct {
		Kind     string            `json:"kind"`
		Scope    string            `json:"scope"`
		Name     string            `json:"name"`
		ParentID uint64            `json:"parent_id"`
		Extra    map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("invalid ndjson: %v", err)
	}
	if ev.Kind != "end" || ev.Scope != "unit" || ev.ParentID != run.ID() || ev.Extra["violations"] != "2" {
		t.Errorf("unit end event = %+v", ev)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	Begin(tr, ScopePhase, "load", 0).WithExtra("units", "3").End("ok")

	out := buf.String()
	if !strings.Contains(out, "> load") || !strings.Contains(out, "< load (ok) {units=3}") {
		t.Errorf("text output:\n%s", out)
	}
}

func TestRingTracerWraps(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(ring, ScopeUnit, name, "", 0)
	}
	snap := ring.Snapshot()
	if len(snap) != 3 || snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("snapshot = %+v", snap)
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Errorf("dump:\n%s", buf.String())
	}
}

func TestNopAndContext(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != Nop {
		t.Fatal("empty context should carry Nop")
	}
	span := Begin(FromContext(ctx), ScopeRun, "check", 0)
	if span.ID() != 0 || span.End("") != 0 {
		t.Error("disabled span should be inert")
	}

	ring := NewRingTracer(8, LevelDebug)
	ctx = WithTracer(ctx, ring)
	s := Begin(FromContext(ctx), ScopeRun, "check", 0)
	ctx = WithSpan(ctx, s)
	if CurrentSpan(ctx) != s.ID() || s.ID() == 0 {
		t.Errorf("CurrentSpan = %d, want %d", CurrentSpan(ctx), s.ID())
	}
}

func TestNewConfig(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("LevelOff should yield Nop, got %v %v", tr, err)
	}

	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	multi, ok := tr.(*MultiTracer)
	if !ok || multi.Ring() == nil {
		t.Fatalf("ModeBoth should fan out to a ring, got %T", tr)
	}
	Begin(tr, ScopePhase, "report", 0).End("")
	if buf.Len() == 0 || len(multi.Ring().Snapshot()) != 2 {
		t.Errorf("both tracers should receive events")
	}

	if _, err := New(Config{Level: LevelPhase}); err == nil {
		t.Error("missing mode should fail")
	}
}

func TestParseModeAndFormat(t *testing.T) {
	for _, m := range []StorageMode{ModeStream, ModeRing, ModeBoth} {
		got, err := ParseMode(strings.ToUpper(m.String()))
		if err != nil || got != m {
			t.Errorf("ParseMode(%s) = %v, %v", m, got, err)
		}
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Error("ParseMode(disk) should fail")
	}

	for path, want := range map[string]Format{
		"run.ndjson": FormatNDJSON,
		"run.jsonl":  FormatNDJSON,
		"run.log":    FormatText,
		"-":          FormatText,
	} {
		if got := streamFormat(Config{OutputPath: path}); got != want {
			t.Errorf("streamFormat(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestHeartbeat(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Error("heartbeat on a disabled tracer should be nil")
	}
	var nilBeat *Heartbeat
	nilBeat.Stop()

	ring := NewRingTracer(64, LevelPhase)
	h := StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()

	snap := ring.Snapshot()
	if len(snap) == 0 {
		t.Fatal("no heartbeat recorded")
	}
	if snap[0].Kind != KindHeartbeat || snap[0].Detail != "#1" {
		t.Errorf("first event = %+v", snap[0])
	}
}
