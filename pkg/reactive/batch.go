package reactive

import "time"

// Batch coalesces every write inside fn into a single flush. Dependents see
// only the final values; each affected effect runs at most once per flush no
// matter how many of its dependencies changed. Batches nest: only the
// outermost close flushes. The flush runs from a defer, so writes applied
// before a panic in fn still propagate.
func Batch(fn func()) {
	tc := ctx()
	tc.batchDepth++
	defer func() {
		tc.batchDepth--
		if tc.batchDepth == 0 {
			tc.flush()
		}
	}()
	fn()
}

// NamedBatch is Batch with a label traced in debug mode.
func NamedBatch(name string, fn func()) {
	if DebugMode {
		log().Debug("batch start", "batch", name)
		defer log().Debug("batch end", "batch", name)
	}
	Batch(fn)
}

// Untrack runs fn with dependency tracking suspended and returns its result.
// Reads inside fn do not subscribe the enclosing computation; the ownership
// scope stays intact, so OnCleanup still registers.
func Untrack[T any](fn func() T) T {
	tc := ctx()
	prev := tc.listener
	tc.listener = nil
	defer func() { tc.listener = prev }()
	return fn()
}

// Untracked is the statement form of Untrack.
func Untracked(fn func()) {
	tc := ctx()
	prev := tc.listener
	tc.listener = nil
	defer func() { tc.listener = prev }()
	fn()
}

// OnSettled registers a one-shot callback invoked once the pending effect
// queue has fully drained, chained effect writes included. When nothing is
// queued and no batch or flush is open, fn runs immediately.
func OnSettled(fn func()) {
	if fn == nil {
		return
	}
	tc := ctx()
	if !tc.flushing && tc.batchDepth == 0 && len(tc.queue) == 0 {
		fn()
		return
	}
	tc.settled = append(tc.settled, fn)
}

// enqueueEffect appends e to the current goroutine's pending queue. Dedup
// happens earlier, at the effect's pending flag.
func enqueueEffect(e *Effect) {
	tc := ctx()
	tc.queue = append(tc.queue, e)
}

// maybeFlush drains the queue unless a batch is open or a flush is already
// running. Called after every effective write.
func maybeFlush() {
	tc := ctx()
	if tc.batchDepth > 0 || tc.flushing {
		return
	}
	tc.flush()
}

// flush runs queued effects in FIFO order until the queue is empty. Writes
// performed by effect bodies re-enter marking and extend this same loop, so
// one flush covers the transitive fallout of a write. Settled callbacks run
// after the drain.
func (tc *trackingContext) flush() {
	if tc.flushing || tc.batchDepth > 0 {
		return
	}
	if len(tc.queue) == 0 {
		tc.runSettled()
		return
	}

	tc.flushing = true
	start := time.Now()
	ran := 0
	for len(tc.queue) > 0 {
		e := tc.queue[0]
		tc.queue = tc.queue[1:]
		ran++
		if e.sched != nil {
			e.sched(e.runPending)
		} else {
			e.runPending()
		}
	}
	tc.queue = nil
	tc.flushing = false

	counters.flushes.Add(1)
	emitBatchFlush(ran, time.Since(start))
	if DebugMode {
		log().Debug("flush complete", "effects", ran)
	}

	tc.runSettled()
}

// runSettled fires the settled callbacks registered up to this point. The
// list is cleared first: a callback that writes signals triggers its own
// flush, and callbacks it registers belong to that one.
func (tc *trackingContext) runSettled() {
	for len(tc.settled) > 0 {
		cbs := tc.settled
		tc.settled = nil
		for _, cb := range cbs {
			cb()
		}
	}
}
