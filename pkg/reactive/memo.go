package reactive

import (
	"sync"
	"time"
)

// Memo is a cached derived value. The evaluator runs lazily: creation does
// not invoke it, a read does, and only when a dependency changed since the
// last run. In between, reads serve the cached value.
//
// An evaluator panic is captured: the memo enters StateErrored and every
// Get or Peek re-panics the same value until a dependency write marks the
// memo stale again.
type Memo[T any] struct {
	signalBase

	comp   computation
	fn     func() T
	equals func(a, b T) bool

	mu          sync.RWMutex
	value       T
	panicVal    any
	initialized bool

	handle *nodeHandle
}

// NewMemo creates a memo over the evaluator fn. The memo registers with the
// current owner, if any, and starts stale; fn does not run until the first
// read.
func NewMemo[T any](fn func() T) *Memo[T] {
	m := &Memo[T]{
		signalBase: newSignalBase(),
		fn:         fn,
		equals:     defaultEquals[T],
	}
	m.comp.state.Store(StateStale)
	m.comp.owner = currentOwner()
	if m.comp.owner != nil {
		m.comp.owner.addDisposable(m)
	}
	counters.memosCreated.Add(1)
	counters.liveMemos.Add(1)
	m.handle = registerNode(m)
	emitNodeCreated(m.id, KindMemo, m.name)
	return m
}

// WithEquals overrides the predicate deciding whether a recompute changed
// the value. On an equal result the previous cached value is kept, so
// dependents retain referential stability. Nil disables suppression.
func (m *Memo[T]) WithEquals(equals func(a, b T) bool) *Memo[T] {
	m.equals = equals
	return m
}

// WithName attaches a diagnostic label used in logs, snapshots and hooks.
func (m *Memo[T]) WithName(name string) *Memo[T] {
	m.name = name
	return m
}

// State returns the memo's lifecycle state.
func (m *Memo[T]) State() NodeState { return m.comp.state.Load() }

// Get returns the memo's value, recomputing first if a dependency changed,
// and subscribes the running computation. On a disposed memo Get returns
// the last cached value and tracks nothing.
func (m *Memo[T]) Get() T {
	if m.comp.state.Load() == StateDisposed {
		return m.cached()
	}
	m.track()
	return m.read()
}

// Peek is Get without the dependency registration: it still recomputes a
// stale memo and still re-panics a captured error.
func (m *Memo[T]) Peek() T {
	if m.comp.state.Load() == StateDisposed {
		return m.cached()
	}
	return m.read()
}

// read resolves the value for Get and Peek: report instead of recursing
// when already computing, recompute when stale, re-panic when errored.
func (m *Memo[T]) read() T {
	switch m.comp.state.Load() {
	case StateComputing:
		m.reportCycle()
		return m.cached()
	case StateStale:
		m.recompute()
	}
	if m.comp.state.Load() == StateErrored {
		panic(m.panicValue())
	}
	return m.cached()
}

// MarkStale flips the memo to stale and cascades to its own subscribers.
// No recomputation happens here; the next read pays for it. Implements
// Listener.
func (m *Memo[T]) MarkStale() {
	if !m.comp.state.markStale() {
		return
	}
	if DebugMode {
		log().Debug("memo stale", "id", m.id, "name", m.name)
	}
	m.markSubscribersStale(nil)
}

// Subscribe invokes fn immediately with the current value and again after
// every change, using the memo's equality predicate to drop repeats. The
// returned function cancels the subscription.
func (m *Memo[T]) Subscribe(fn func(T)) func() {
	var (
		last T
		has  bool
	)
	e := CreateEffect(func() Cleanup {
		v := m.Get()
		if has && m.equals != nil && m.equals(last, v) {
			return nil
		}
		last = v
		has = true
		fn(v)
		return nil
	})
	return e.Dispose
}

// Dispose permanently retires the memo. Reads keep returning the last
// cached value without tracking. Idempotent.
func (m *Memo[T]) Dispose() {
	if !m.comp.state.dispose() {
		return
	}
	if scope := m.comp.runScope; scope != nil {
		scope.Dispose()
		m.comp.runScope = nil
	}
	m.comp.detachSources(m)
	m.clearSubscribers()
	counters.liveMemos.Add(-1)
	emitNodeDisposed(m.id, KindMemo, m.name)
}

// recompute runs the evaluator once. Only one caller wins the Stale to
// Computing transition; losers fall through to the cached value.
func (m *Memo[T]) recompute() {
	exclude := currentListener()
	if !m.comp.state.CompareAndSwap(StateStale, StateComputing) {
		return
	}

	counters.recomputes.Add(1)
	start := time.Now()

	tc := ctx()
	prevOwner, prevListener := tc.owner, tc.listener

	// Cleanups from the previous run fire untracked, then the previous
	// subscriptions drop so this run re-collects from scratch.
	tc.listener = nil
	if prev := m.comp.runScope; prev != nil {
		prev.Dispose()
	}
	m.comp.detachSources(m)

	scope := NewOwner(m.comp.owner)
	m.comp.runScope = scope
	tc.owner, tc.listener = scope, m

	var (
		next     T
		panicked bool
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				m.mu.Lock()
				m.panicVal = r
				m.mu.Unlock()
			}
		}()
		next = m.fn()
	}()

	tc.owner, tc.listener = prevOwner, prevListener

	if panicked {
		counters.recoveredPanics.Add(1)
		m.comp.state.CompareAndSwap(StateComputing, StateErrored)
		emitMemoRecompute(m.id, m.name, time.Since(start), true)
		return
	}

	m.mu.Lock()
	first := !m.initialized
	changed := first || m.equals == nil || !m.equals(m.value, next)
	if changed {
		m.value = next
	}
	m.initialized = true
	m.mu.Unlock()

	m.comp.state.CompareAndSwap(StateComputing, StateClean)
	emitMemoRecompute(m.id, m.name, time.Since(start), false)

	// Dependents learn about a changed value, except the reader that
	// forced this recompute: marking it again would re-queue it over its
	// own read. On the first computation only pre-existing subscribers
	// need the mark.
	if changed && (!first || m.hasSubscribers()) {
		m.markSubscribersStale(exclude)
	}
}

func (m *Memo[T]) reportCycle() {
	counters.cycles.Add(1)
	emitCycle(m.id, m.name)
	cerr := &CycleError{NodeID: m.id, Name: m.name}
	log().Warn("circular dependency detected", "err", cerr)
}

func (m *Memo[T]) cached() T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

func (m *Memo[T]) panicValue() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.panicVal
}

// track subscribes the running computation. A memo never subscribes to
// itself, so the direct self-read of a cycle leaves no edge behind.
func (m *Memo[T]) track() {
	l := currentListener()
	if l == nil || l.ID() == m.id {
		return
	}
	m.subscribe(l)
	if tr, ok := l.(sourceTracker); ok {
		tr.addSource(&m.signalBase)
	}
}

func (m *Memo[T]) addSource(src *signalBase) { m.comp.addSource(src) }

func (m *Memo[T]) nodeKind() NodeKind   { return KindMemo }
func (m *Memo[T]) nodeState() NodeState { return m.comp.state.Load() }
func (m *Memo[T]) sourceIDs() []uint64  { return m.comp.sourceIDs() }
