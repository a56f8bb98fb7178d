package driver

// EventKind tells what happened to a unit.
type EventKind uint8

const (
	// EventLoaded is sent once after every unit has been read.
	EventLoaded EventKind = iota + 1
	EventUnitStarted
	EventUnitDone
	// EventDone is sent once when all units are checked.
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventUnitStarted:
		return "unit-started"
	case EventUnitDone:
		return "unit-done"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event reports progress of a run.
type Event struct {
	Kind       EventKind
	Path       string
	Total      int // number of units in the run
	Violations int // for EventUnitDone
	Cached     bool
	Err        error // set on EventDone when the run stopped early
}

// EventSink receives progress events. It is called from worker goroutines
// and must be safe for concurrent use.
type EventSink func(Event)

func (s EventSink) emit(ev Event) {
	if s != nil {
		s(ev)
	}
}

// ChannelSink forwards events to ch. The send blocks, so the consumer must
// keep reading until EventDone.
func ChannelSink(ch chan<- Event) EventSink {
	return func(ev Event) { ch <- ev }
}
