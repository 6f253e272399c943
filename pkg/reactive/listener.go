package reactive

import "sync"

// Listener is implemented by nodes that subscribe to reactive sources.
// MarkStale must be cheap and must not recompute inline: memos only flip
// state and cascade, effects only enqueue themselves.
type Listener interface {
	// MarkStale tells the listener that a dependency changed.
	MarkStale()

	// ID returns the identity used to deduplicate subscriptions.
	ID() uint64
}

// sourceTracker is implemented by listeners that remember which sources they
// read, so subscriptions from a previous run can be dropped before the next.
type sourceTracker interface {
	addSource(src *signalBase)
}

// computation is the bookkeeping shared by memos and effects: lifecycle
// state, the owner it registered with, the per-run scope owner, and the
// sources collected during the last run.
type computation struct {
	state    atomicState
	owner    *Owner
	runScope *Owner

	sourcesMu sync.Mutex
	sources   []*signalBase
}

func (c *computation) addSource(src *signalBase) {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()
	for _, s := range c.sources {
		if s.id == src.id {
			return
		}
	}
	c.sources = append(c.sources, src)
}

// detachSources unsubscribes self from everything read during the last run
// and clears the source set.
func (c *computation) detachSources(self Listener) {
	c.sourcesMu.Lock()
	sources := c.sources
	c.sources = nil
	c.sourcesMu.Unlock()

	for _, src := range sources {
		src.unsubscribe(self)
	}
}

func (c *computation) sourceIDs() []uint64 {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()
	if len(c.sources) == 0 {
		return nil
	}
	ids := make([]uint64, len(c.sources))
	for i, s := range c.sources {
		ids[i] = s.id
	}
	return ids
}
