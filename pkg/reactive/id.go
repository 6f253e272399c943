package reactive

import "sync/atomic"

var lastID atomic.Uint64

// nextID returns a process-unique identity for reactive nodes.
// IDs are never reused, so they double as creation-order marks.
func nextID() uint64 {
	return lastID.Add(1)
}
