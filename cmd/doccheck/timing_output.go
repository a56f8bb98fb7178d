package main

import (
	"fmt"
	"io"

	"doccheck/internal/observ"
)

// printTimings writes the phase table and the run counters.
func printTimings(out io.Writer, timer *observ.Timer, counters *observ.Counters) {
	if out == nil || timer == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
	if counters != nil {
		fmt.Fprintln(out, counters.String())
	}
}
