package reactive

import (
	"sync/atomic"
	"time"
)

// Cleanup is returned by an effect body to release resources before the
// next run and on disposal. Return nil when there is nothing to release.
type Cleanup func()

// Scheduler hands a queued effect run to a caller-controlled executor, for
// marshaling onto a UI thread or a test harness. The executor must call run
// exactly once; dropping it leaves the effect parked as pending.
type Scheduler func(run func())

// Effect eagerly re-runs a function whenever a dependency read during its
// previous run changes. Effects run immediately on creation (unless
// Deferred), are queued at most once per flush, and survive their own
// panics: a panicking body is reported and the effect re-arms for the next
// change.
type Effect struct {
	id   uint64
	name string

	comp    computation
	fn      func() Cleanup
	cleanup Cleanup
	sched   Scheduler

	// pending dedups queue entries: set when the effect is enqueued,
	// cleared right before it runs.
	pending atomic.Bool

	deferred bool
	handle   *nodeHandle
}

// EffectOption configures an Effect at creation.
type EffectOption interface {
	isEffectOption()
	applyEffect(e *Effect)
}

type effectOptionFunc func(*Effect)

func (f effectOptionFunc) isEffectOption()       {}
func (f effectOptionFunc) applyEffect(e *Effect) { f(e) }

// Deferred queues the first run instead of running it inside CreateEffect.
// The run lands at the close of the enclosing batch, or at the next flush on
// this goroutine.
func Deferred() EffectOption {
	return effectOptionFunc(func(e *Effect) { e.deferred = true })
}

// WithScheduler routes every queued run of this effect through sched.
func WithScheduler(sched Scheduler) EffectOption {
	return effectOptionFunc(func(e *Effect) { e.sched = sched })
}

// EffectName attaches a diagnostic label used in logs, snapshots and hooks.
func EffectName(name string) EffectOption {
	return effectOptionFunc(func(e *Effect) { e.name = name })
}

// CreateEffect registers fn to re-run whenever one of its dependencies
// changes, and runs it once before returning (unless Deferred). The effect
// registers with the current owner for disposal.
func CreateEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	e := &Effect{
		id: nextID(),
		fn: fn,
	}
	for _, opt := range opts {
		opt.applyEffect(e)
	}
	e.comp.state.Store(StateStale)
	e.comp.owner = currentOwner()
	if e.comp.owner != nil {
		e.comp.owner.addDisposable(e)
	}
	counters.effectsCreated.Add(1)
	counters.liveEffects.Add(1)
	e.handle = registerNode(e)
	emitNodeCreated(e.id, KindEffect, e.name)

	if e.deferred {
		if e.pending.CompareAndSwap(false, true) {
			enqueueEffect(e)
		}
	} else {
		e.run()
	}
	return e
}

// ID returns the effect's unique identity. Implements Listener.
func (e *Effect) ID() uint64 { return e.id }

// Name returns the diagnostic label, empty when unnamed.
func (e *Effect) Name() string { return e.name }

// State returns the effect's lifecycle state.
func (e *Effect) State() NodeState { return e.comp.state.Load() }

// MarkStale queues the effect for re-execution. The pending flag dedups:
// however many dependencies changed in one flush, the effect is queued
// once. Implements Listener.
func (e *Effect) MarkStale() {
	if e.comp.state.Load() == StateDisposed {
		return
	}
	e.comp.state.markStale()
	if e.pending.CompareAndSwap(false, true) {
		enqueueEffect(e)
	}
}

// runPending claims the queue entry and runs. A disposed effect claims and
// drops it.
func (e *Effect) runPending() {
	if !e.pending.CompareAndSwap(true, false) {
		return
	}
	e.run()
}

func (e *Effect) run() {
	if e.comp.state.Load() == StateDisposed {
		return
	}

	counters.effectRuns.Add(1)
	start := time.Now()

	tc := ctx()
	prevOwner, prevListener := tc.owner, tc.listener

	// Tear down the previous run first: scope cleanups, then the returned
	// cleanup, all untracked, then drop the old subscriptions.
	tc.listener = nil
	if prev := e.comp.runScope; prev != nil {
		prev.Dispose()
	}
	if e.cleanup != nil {
		runCleanup(e.cleanup)
		e.cleanup = nil
	}
	e.comp.detachSources(e)

	scope := NewOwner(e.comp.owner)
	e.comp.runScope = scope
	tc.owner, tc.listener = scope, e
	e.comp.state.Store(StateComputing)

	var panicked bool
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				counters.recoveredPanics.Add(1)
				e.comp.state.CompareAndSwap(StateComputing, StateErrored)
				handleEffectPanic(scope, &EffectPanicError{EffectID: e.id, Name: e.name, Value: r})
			}
		}()
		e.cleanup = e.fn()
	}()

	tc.owner, tc.listener = prevOwner, prevListener

	if !panicked {
		e.comp.state.CompareAndSwap(StateComputing, StateClean)
	}
	emitEffectRun(e.id, e.name, time.Since(start), panicked)
	if DebugMode {
		log().Debug("effect run", "id", e.id, "name", e.name, "panicked", panicked)
	}
}

// Dispose permanently stops the effect: scope and final cleanup run, all
// subscriptions drop. Idempotent; a queued entry left behind is claimed and
// dropped by the flush loop.
func (e *Effect) Dispose() {
	if !e.comp.state.dispose() {
		return
	}
	if scope := e.comp.runScope; scope != nil {
		scope.Dispose()
		e.comp.runScope = nil
	}
	if e.cleanup != nil {
		runCleanup(e.cleanup)
		e.cleanup = nil
	}
	e.comp.detachSources(e)
	counters.liveEffects.Add(-1)
	emitNodeDisposed(e.id, KindEffect, e.name)
}

func (e *Effect) addSource(src *signalBase) { e.comp.addSource(src) }

func (e *Effect) nodeKind() NodeKind      { return KindEffect }
func (e *Effect) nodeName() string        { return e.name }
func (e *Effect) nodeState() NodeState    { return e.comp.state.Load() }
func (e *Effect) sourceIDs() []uint64     { return e.comp.sourceIDs() }
func (e *Effect) subscriberIDs() []uint64 { return nil }
