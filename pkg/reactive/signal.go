package reactive

import (
	"reflect"
	"sync"
)

// signalBase carries the identity and subscriber list shared by every
// reactive source (signals and memos).
type signalBase struct {
	id   uint64
	name string

	subMu sync.RWMutex
	subs  []Listener
}

func newSignalBase() signalBase {
	return signalBase{id: nextID()}
}

// ID returns the node's unique identity.
func (b *signalBase) ID() uint64 { return b.id }

// Name returns the diagnostic label, empty when unnamed.
func (b *signalBase) Name() string { return b.name }

func (b *signalBase) nodeName() string { return b.name }

// subscribe adds a listener. Duplicate IDs are ignored, so re-reading a
// source inside one run costs a scan, not a second subscription.
func (b *signalBase) subscribe(l Listener) {
	if l == nil {
		return
	}
	b.subMu.Lock()
	defer b.subMu.Unlock()
	id := l.ID()
	for _, sub := range b.subs {
		if sub.ID() == id {
			return
		}
	}
	b.subs = append(b.subs, l)
}

// unsubscribe removes a listener by identity. Order is not preserved.
func (b *signalBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}
	b.subMu.Lock()
	defer b.subMu.Unlock()
	id := l.ID()
	for i, sub := range b.subs {
		if sub.ID() == id {
			last := len(b.subs) - 1
			b.subs[i] = b.subs[last]
			b.subs[last] = nil
			b.subs = b.subs[:last]
			return
		}
	}
}

// markSubscribersStale notifies every subscriber except the one given.
// The list is copied first so listeners may unsubscribe mid-notification.
// except is the listener that triggered the notification (the reader that
// forced a memo recompute); nil means notify everyone.
func (b *signalBase) markSubscribersStale(except Listener) {
	b.subMu.RLock()
	if len(b.subs) == 0 {
		b.subMu.RUnlock()
		return
	}
	subs := make([]Listener, len(b.subs))
	copy(subs, b.subs)
	b.subMu.RUnlock()

	var exceptID uint64
	if except != nil {
		exceptID = except.ID()
	}
	for _, sub := range subs {
		if except != nil && sub.ID() == exceptID {
			continue
		}
		sub.MarkStale()
	}
}

func (b *signalBase) hasSubscribers() bool {
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	return len(b.subs) > 0
}

func (b *signalBase) subscriberIDs() []uint64 {
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	if len(b.subs) == 0 {
		return nil
	}
	ids := make([]uint64, len(b.subs))
	for i, sub := range b.subs {
		ids[i] = sub.ID()
	}
	return ids
}

func (b *signalBase) clearSubscribers() {
	b.subMu.Lock()
	b.subs = nil
	b.subMu.Unlock()
}

// Signal is a mutable reactive value. Reads inside a tracking scope
// subscribe the running computation; writes that change the value mark
// every subscriber stale.
//
// Signals have no Dispose: a signal nothing subscribes to is ordinary
// garbage for the collector.
type Signal[T any] struct {
	signalBase

	mu     sync.RWMutex
	value  T
	equals func(a, b T) bool

	handle *nodeHandle
}

// NewSignal creates a signal holding initial. Writes are suppressed when the
// new value equals the old one; see WithEquals for a custom predicate.
func NewSignal[T any](initial T) *Signal[T] {
	s := &Signal[T]{
		signalBase: newSignalBase(),
		value:      initial,
		equals:     defaultEquals[T],
	}
	counters.signalsCreated.Add(1)
	s.handle = registerNode(s)
	emitNodeCreated(s.id, KindSignal, s.name)
	return s
}

// WithEquals overrides the predicate that decides whether a write changed
// the value. A nil predicate disables suppression: every Set notifies.
// Returns the signal for chaining; call before the signal is shared.
func (s *Signal[T]) WithEquals(equals func(a, b T) bool) *Signal[T] {
	s.equals = equals
	return s
}

// WithName attaches a diagnostic label used in logs, snapshots and hooks.
func (s *Signal[T]) WithName(name string) *Signal[T] {
	s.name = name
	return s
}

// Get returns the current value and subscribes the running computation, if
// there is one.
func (s *Signal[T]) Get() T {
	s.track()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Peek returns the current value without registering a dependency.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value. Writes that compare equal to the current value are
// dropped without notifying subscribers.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	if s.equals != nil && s.equals(s.value, value) {
		s.mu.Unlock()
		return
	}
	s.value = value
	s.mu.Unlock()

	s.notifyWrite()
}

// Update applies fn to the current value and stores the result, with the
// same equality gate as Set. The whole step is one write: subscribers see
// either the old or the new value, never an intermediate.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	if s.equals != nil && s.equals(s.value, next) {
		s.mu.Unlock()
		return
	}
	s.value = next
	s.mu.Unlock()

	s.notifyWrite()
}

// notifyWrite runs the post-write cascade: counters and hooks, stale-marking
// every subscriber, then a flush if no batch is open.
func (s *Signal[T]) notifyWrite() {
	counters.writes.Add(1)
	emitSignalWrite(s.id, s.name)
	if DebugMode {
		log().Debug("signal write", "id", s.id, "name", s.name)
	}
	s.markSubscribersStale(nil)
	maybeFlush()
}

func (s *Signal[T]) track() {
	l := currentListener()
	if l == nil {
		return
	}
	s.subscribe(l)
	if tr, ok := l.(sourceTracker); ok {
		tr.addSource(&s.signalBase)
	}
}

func (s *Signal[T]) nodeKind() NodeKind   { return KindSignal }
func (s *Signal[T]) nodeState() NodeState { return StateClean }
func (s *Signal[T]) sourceIDs() []uint64  { return nil }

// defaultEquals compares common scalar types directly and falls back to
// reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int8:
		bv, ok := any(b).(int8)
		return ok && av == bv
	case int16:
		bv, ok := any(b).(int16)
		return ok && av == bv
	case int32:
		bv, ok := any(b).(int32)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case uint:
		bv, ok := any(b).(uint)
		return ok && av == bv
	case uint8:
		bv, ok := any(b).(uint8)
		return ok && av == bv
	case uint16:
		bv, ok := any(b).(uint16)
		return ok && av == bv
	case uint32:
		bv, ok := any(b).(uint32)
		return ok && av == bv
	case uint64:
		bv, ok := any(b).(uint64)
		return ok && av == bv
	case float32:
		bv, ok := any(b).(float32)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}
