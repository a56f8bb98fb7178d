package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits a run-scope event at a fixed interval, so a run stuck on
// one unit still shows up in the trace.
type Heartbeat struct {
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// StartHeartbeat starts beating. It returns nil when tracing is off or
// interval is not positive; Stop accepts nil.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{})}
	h.wg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for n := 1; ; n++ {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				ev := event(KindHeartbeat, ScopeRun, "heartbeat")
				ev.Detail = "#" + strconv.Itoa(n)
				tracer.Emit(ev)
			}
		}
	})
	return h
}

// Stop ends the heartbeat and waits for its goroutine.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	h.wg.Wait()
}
