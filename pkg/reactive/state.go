package reactive

import "sync/atomic"

// NodeState describes where a memo or effect sits in its lifecycle.
type NodeState int32

const (
	// StateClean means the cached value reflects the current dependencies.
	StateClean NodeState = iota

	// StateStale means a dependency changed since the last evaluation.
	StateStale

	// StateComputing means an evaluation is in progress. A read that
	// observes this state re-entered its own evaluation.
	StateComputing

	// StateErrored means the last evaluation panicked. Memos re-panic the
	// captured value on read until a dependency write marks them stale.
	StateErrored

	// StateDisposed means the node was torn down and will never run again.
	StateDisposed
)

func (s NodeState) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateStale:
		return "stale"
	case StateComputing:
		return "computing"
	case StateErrored:
		return "errored"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// atomicState holds a NodeState and enforces the legal transitions.
type atomicState struct {
	v atomic.Int32
}

func (a *atomicState) Load() NodeState { return NodeState(a.v.Load()) }

func (a *atomicState) Store(s NodeState) { a.v.Store(int32(s)) }

func (a *atomicState) CompareAndSwap(old, new NodeState) bool {
	return a.v.CompareAndSwap(int32(old), int32(new))
}

// markStale moves the state to Stale unless the node is already stale or
// disposed. Reports whether the transition happened. Marking a node that is
// mid-computation is legal: the run's closing CompareAndSwap back to Clean
// fails and the staleness survives the run.
func (a *atomicState) markStale() bool {
	for {
		cur := a.Load()
		if cur == StateStale || cur == StateDisposed {
			return false
		}
		if a.CompareAndSwap(cur, StateStale) {
			return true
		}
	}
}

// dispose moves the state to Disposed. Reports whether this call won; losers
// see an already-disposed node and must not tear down twice.
func (a *atomicState) dispose() bool {
	for {
		cur := a.Load()
		if cur == StateDisposed {
			return false
		}
		if a.CompareAndSwap(cur, StateDisposed) {
			return true
		}
	}
}
