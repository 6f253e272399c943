package reactive

import (
	"sync"

	"github.com/petermattis/goid"
)

// trackingContext holds the reactive bookkeeping for one goroutine: the
// owner adopting new nodes, the listener collecting dependencies, batch
// nesting, the pending effect queue and the settled callbacks.
type trackingContext struct {
	owner      *Owner
	listener   Listener
	batchDepth int
	queue      []*Effect
	flushing   bool
	settled    []func()
}

// trackingContexts maps goroutine id to *trackingContext. Contexts are
// created on first touch and reused for the life of the goroutine id.
var trackingContexts sync.Map

func ctx() *trackingContext {
	gid := goid.Get()
	if tc, ok := trackingContexts.Load(gid); ok {
		return tc.(*trackingContext)
	}
	tc := &trackingContext{}
	trackingContexts.Store(gid, tc)
	return tc
}

// currentListener returns the computation currently collecting
// dependencies, or nil when reads are untracked.
func currentListener() Listener {
	return ctx().listener
}

// currentOwner returns the owner that adopts newly created nodes, or nil
// outside any ownership scope.
func currentOwner() *Owner {
	return ctx().owner
}

// WithOwner runs fn with owner adopting every node fn creates. Use it when
// work on another goroutine should belong to an existing scope:
//
//	go func() {
//	    WithOwner(owner, func() {
//	        CreateEffect(func() Cleanup { ... })
//	    })
//	}()
func WithOwner(owner *Owner, fn func()) {
	tc := ctx()
	prev := tc.owner
	tc.owner = owner
	defer func() { tc.owner = prev }()
	fn()
}

// WithListener runs fn with l recording every dependency read. Intended for
// integration layers that implement their own Listener.
func WithListener(l Listener, fn func()) {
	tc := ctx()
	prev := tc.listener
	tc.listener = l
	defer func() { tc.listener = prev }()
	fn()
}
