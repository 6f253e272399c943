package devtools

import (
	"sync"
	"time"

	"github.com/glintui/glint/pkg/reactive"
)

// EventType tags recorded runtime events.
type EventType string

const (
	EventWrite     EventType = "write"
	EventRecompute EventType = "recompute"
	EventEffectRun EventType = "effect"
	EventFlush     EventType = "flush"
	EventCycle     EventType = "cycle"
	EventCreate    EventType = "create"
	EventDispose   EventType = "dispose"
)

// Event is one recorded runtime event. Fields that don't apply to the type
// are zero and omitted from JSON.
type Event struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"time"`
	Type     EventType `json:"type"`
	Node     uint64    `json:"node,omitempty"`
	Kind     string    `json:"kind,omitempty"`
	Name     string    `json:"name,omitempty"`
	Duration int64     `json:"duration_ns,omitempty"`
	Effects  int       `json:"effects,omitempty"`
	Errored  bool      `json:"errored,omitempty"`
}

// DefaultRecorderCapacity bounds a Recorder built with capacity <= 0.
const DefaultRecorderCapacity = 512

// Recorder keeps the most recent runtime events in a fixed-size ring and
// fans them out to registered listeners. It holds no references into the
// graph, only copied ids and names.
type Recorder struct {
	mu        sync.Mutex
	buf       []Event
	next      int
	full      bool
	seq       uint64
	listeners []func(Event)
}

// NewRecorder creates a recorder holding up to capacity events.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultRecorderCapacity
	}
	return &Recorder{buf: make([]Event, capacity)}
}

// Install attaches the recorder to the runtime's instrumentation hooks.
// The returned function detaches it; recorded events are kept.
func (r *Recorder) Install() func() {
	return reactive.AddHooks(&reactive.Hooks{
		SignalWrite: func(id uint64, name string) {
			r.record(Event{Type: EventWrite, Node: id, Name: name})
		},
		MemoRecompute: func(id uint64, name string, d time.Duration, errored bool) {
			r.record(Event{Type: EventRecompute, Node: id, Name: name, Duration: int64(d), Errored: errored})
		},
		EffectRun: func(id uint64, name string, d time.Duration, panicked bool) {
			r.record(Event{Type: EventEffectRun, Node: id, Name: name, Duration: int64(d), Errored: panicked})
		},
		BatchFlush: func(effects int, d time.Duration) {
			r.record(Event{Type: EventFlush, Effects: effects, Duration: int64(d)})
		},
		CycleDetected: func(id uint64, name string) {
			r.record(Event{Type: EventCycle, Node: id, Name: name})
		},
		NodeCreated: func(id uint64, kind reactive.NodeKind, name string) {
			r.record(Event{Type: EventCreate, Node: id, Kind: kind.String(), Name: name})
		},
		NodeDisposed: func(id uint64, kind reactive.NodeKind, name string) {
			r.record(Event{Type: EventDispose, Node: id, Kind: kind.String(), Name: name})
		},
	})
}

// AddListener registers fn to receive every event as it is recorded. fn runs
// inline on the goroutine producing the event and must not block.
func (r *Recorder) AddListener(fn func(Event)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Recorder) record(ev Event) {
	r.mu.Lock()
	r.seq++
	ev.Seq = r.seq
	ev.Time = time.Now()
	r.buf[r.next] = ev
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
	listeners := r.listeners
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Events returns the recorded events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		return append([]Event(nil), r.buf[:r.next]...)
	}
	out := make([]Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}

// Len returns the number of events currently held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Cap returns the ring capacity.
func (r *Recorder) Cap() int {
	return len(r.buf)
}
