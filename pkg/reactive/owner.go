package reactive

import (
	"sync"
	"sync/atomic"
)

// disposable is anything an owner tears down on Dispose.
type disposable interface {
	Dispose()
}

// Owner is a node in the disposal tree. Memos and effects created under an
// owner register with it; disposing the owner tears down the whole subtree:
// child owners first (reverse creation order), then owned computations, then
// cleanup callbacks in registration order.
//
// All registration methods are silent no-ops once the owner is disposed.
type Owner struct {
	id     uint64
	parent *Owner

	mu       sync.Mutex
	children []*Owner
	owned    []disposable
	cleanups []func()
	catchers []func(any)
	values   map[any]any

	disposed atomic.Bool
	handle   *nodeHandle
}

// NewOwner creates an owner. A nil parent makes a root; a disposed parent
// leaves the new owner standing alone, outside any tree.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{id: nextID(), parent: parent}
	if parent != nil && !parent.addChild(o) {
		o.parent = nil
	}
	counters.ownersCreated.Add(1)
	counters.liveOwners.Add(1)
	o.handle = registerNode(o)
	emitNodeCreated(o.id, KindOwner, "")
	return o
}

// ID returns the owner's unique identity.
func (o *Owner) ID() uint64 { return o.id }

// IsDisposed reports whether Dispose has run.
func (o *Owner) IsDisposed() bool { return o.disposed.Load() }

func (o *Owner) addChild(child *Owner) bool {
	if o.disposed.Load() {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed.Load() {
		return false
	}
	o.children = append(o.children, child)
	return true
}

func (o *Owner) removeChild(child *Owner) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// addDisposable registers a memo or effect for teardown. No-op when the
// owner is already disposed; the computation then outlives the scope and
// must be disposed by hand.
func (o *Owner) addDisposable(d disposable) {
	if o.disposed.Load() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed.Load() {
		return
	}
	o.owned = append(o.owned, d)
}

// OnCleanup registers fn to run when the owner is disposed. Callbacks run in
// registration order, each recovered individually so one panic cannot stop
// the rest of the teardown.
func (o *Owner) OnCleanup(fn func()) {
	if fn == nil || o.disposed.Load() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed.Load() {
		return
	}
	o.cleanups = append(o.cleanups, fn)
}

// OnError registers a handler for panics recovered from effects owned by
// this owner or its descendants. The nearest ancestor with handlers wins;
// without any handler the package logger reports the panic.
func (o *Owner) OnError(fn func(any)) {
	if fn == nil || o.disposed.Load() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed.Load() {
		return
	}
	o.catchers = append(o.catchers, fn)
}

// SetValue stores a context value on this owner.
func (o *Owner) SetValue(key, value any) {
	if o.disposed.Load() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed.Load() {
		return
	}
	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// GetValue looks key up on this owner, then up the parent chain.
func (o *Owner) GetValue(key any) (any, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		v, ok := cur.values[key]
		cur.mu.Unlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Dispose tears down the subtree. Idempotent: the second and later calls
// return immediately.
func (o *Owner) Dispose() {
	if !o.disposed.CompareAndSwap(false, true) {
		return
	}

	o.mu.Lock()
	children := o.children
	owned := o.owned
	cleanups := o.cleanups
	o.children = nil
	o.owned = nil
	o.cleanups = nil
	o.catchers = nil
	o.values = nil
	o.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}
	for _, d := range owned {
		d.Dispose()
	}
	for _, fn := range cleanups {
		runCleanup(fn)
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}
	counters.liveOwners.Add(-1)
	emitNodeDisposed(o.id, KindOwner, "")
}

// runCleanup runs one cleanup callback, recovering panics so teardown
// continues past a failing callback.
func runCleanup(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			counters.recoveredPanics.Add(1)
			log().Error("cleanup panicked", "panic", r)
		}
	}()
	fn()
}

// handleEffectPanic routes a recovered effect panic to the nearest OnError
// handlers, starting at the effect's run scope and walking up. All handlers
// on the first owner that has any receive the raw panic value. Without
// handlers the package logger reports the wrapped error.
func handleEffectPanic(scope *Owner, perr *EffectPanicError) {
	for cur := scope; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		catchers := make([]func(any), len(cur.catchers))
		copy(catchers, cur.catchers)
		cur.mu.Unlock()
		if len(catchers) == 0 {
			continue
		}
		for _, c := range catchers {
			invokeCatcher(c, perr.Value)
		}
		return
	}
	log().Error("effect panicked", "err", perr)
}

func invokeCatcher(fn func(any), v any) {
	defer func() {
		if r := recover(); r != nil {
			log().Error("error handler panicked", "panic", r)
		}
	}()
	fn(v)
}

// CreateRoot runs fn under a fresh owner and hands it that owner's dispose
// function. The root parents to the current owner when one is active, so
// disposing an enclosing scope tears nested roots down with it.
func CreateRoot[T any](fn func(dispose func()) T) T {
	owner := NewOwner(currentOwner())
	tc := ctx()
	prev := tc.owner
	tc.owner = owner
	defer func() { tc.owner = prev }()
	return fn(owner.Dispose)
}

// OnCleanup registers fn on the current owner. Without an active owner the
// callback is dropped.
func OnCleanup(fn func()) {
	owner := currentOwner()
	if owner == nil {
		if DebugMode {
			log().Debug("OnCleanup outside an owner scope, dropped")
		}
		return
	}
	owner.OnCleanup(fn)
}

// OnError registers fn on the current owner. Without an active owner the
// handler is dropped.
func OnError(fn func(any)) {
	owner := currentOwner()
	if owner == nil {
		if DebugMode {
			log().Debug("OnError outside an owner scope, dropped")
		}
		return
	}
	owner.OnError(fn)
}

func (o *Owner) nodeKind() NodeKind { return KindOwner }
func (o *Owner) nodeName() string   { return "" }

func (o *Owner) nodeState() NodeState {
	if o.disposed.Load() {
		return StateDisposed
	}
	return StateClean
}

func (o *Owner) sourceIDs() []uint64     { return nil }
func (o *Owner) subscriberIDs() []uint64 { return nil }
