package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"doccheck/internal/trace"
)

type tracing struct {
	tracer    trace.Tracer
	heartbeat *trace.Heartbeat
	root      *trace.Span
}

var activeTracing *tracing

func addTraceFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String("trace", "", "write trace events to file (- for stderr; .ndjson/.jsonl selects NDJSON)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug); phase when --trace is set")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 4096, "number of events kept in ring mode")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0=off)")
}

// setupTracing inspects trace-related flags and initializes the tracer.
func setupTracing(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	if traceOutput != "" && !flags.Changed("trace-level") {
		levelStr = trace.LevelPhase.String()
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return fmt.Errorf("invalid trace format: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}

	root := trace.Begin(tracer, trace.ScopeRun, cmd.Name(), 0).WithExtra("version", cmd.Root().Version)
	ctx := trace.WithSpan(trace.WithTracer(cmd.Context(), tracer), root)
	cmd.SetContext(ctx)

	activeTracing = &tracing{
		tracer:    tracer,
		heartbeat: trace.StartHeartbeat(tracer, heartbeatInterval),
		root:      root,
	}
	return nil
}

// closeTracing ends the run span and flushes the tracer. It is idempotent.
func closeTracing(cmd *cobra.Command) {
	t := activeTracing
	if t == nil {
		return
	}
	activeTracing = nil

	t.heartbeat.Stop()
	t.root.End("")
	if err := t.tracer.Flush(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
	}
	if err := t.tracer.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
	}
}

// dumpTraceOnPanic writes the in-memory trace ring to stderr before the
// panic continues. It must be deferred directly.
func dumpTraceOnPanic() {
	r := recover()
	if r == nil {
		return
	}
	if t := activeTracing; t != nil {
		var ring *trace.RingTracer
		switch tr := t.tracer.(type) {
		case *trace.RingTracer:
			ring = tr
		case *trace.MultiTracer:
			ring = tr.Ring()
		}
		if ring != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n--- last trace events (%s) ---\n", r, time.Now().Format(time.RFC3339))
			_ = ring.Dump(os.Stderr, trace.FormatText)
		}
		_ = t.tracer.Flush()
	}
	panic(r)
}
