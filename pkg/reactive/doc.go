// Package reactive implements Glint's fine-grained reactive runtime:
// signals (mutable state), memos (cached derived values), effects
// (eager side-effect subscribers) and owners (hierarchical disposal).
//
// Dependency tracking is implicit. Reading a signal or memo inside an
// effect body or memo evaluator subscribes the running computation to
// that source. Dependencies are re-collected on every run, so a branch
// that stops reading a source stops depending on it.
//
// Writes propagate in two phases. A write first marks downstream memos
// stale (no recomputation happens yet) and queues affected effects; the
// queue then drains synchronously, either immediately after the write
// or at the close of the outermost Batch. Memos recompute lazily, on
// read, so unobserved derived values cost nothing.
//
// The runtime keeps tracking state per goroutine, so independent
// goroutines can each drive their own graph. Individual nodes are safe
// for concurrent access, but a single graph's writes and effect runs
// should converge on one goroutine; ordering across goroutines is the
// caller's concern.
package reactive
