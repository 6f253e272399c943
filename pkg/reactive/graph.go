package reactive

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"weak"
)

// NodeKind tags entries in graph snapshots.
type NodeKind int32

const (
	KindSignal NodeKind = iota
	KindMemo
	KindEffect
	KindOwner
)

func (k NodeKind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindMemo:
		return "memo"
	case KindEffect:
		return "effect"
	case KindOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// graphNode is the reflection surface nodes expose to diagnostics.
type graphNode interface {
	ID() uint64
	nodeKind() NodeKind
	nodeName() string
	nodeState() NodeState
	sourceIDs() []uint64
	subscriberIDs() []uint64
}

// counters are always on; the registry below is opt-in.
var counters struct {
	signalsCreated  atomic.Uint64
	memosCreated    atomic.Uint64
	effectsCreated  atomic.Uint64
	ownersCreated   atomic.Uint64
	liveMemos       atomic.Int64
	liveEffects     atomic.Int64
	liveOwners      atomic.Int64
	writes          atomic.Uint64
	recomputes      atomic.Uint64
	effectRuns      atomic.Uint64
	flushes         atomic.Uint64
	cycles          atomic.Uint64
	recoveredPanics atomic.Uint64
}

// GraphStats is a point-in-time aggregate of runtime activity. Created
// counts are monotonic; live counts fall as nodes are disposed. Owner
// counts include the per-run scopes of memos and effects.
type GraphStats struct {
	SignalsCreated  uint64 `json:"signals_created"`
	MemosCreated    uint64 `json:"memos_created"`
	EffectsCreated  uint64 `json:"effects_created"`
	OwnersCreated   uint64 `json:"owners_created"`
	LiveMemos       int64  `json:"live_memos"`
	LiveEffects     int64  `json:"live_effects"`
	LiveOwners      int64  `json:"live_owners"`
	Writes          uint64 `json:"writes"`
	Recomputes      uint64 `json:"recomputes"`
	EffectRuns      uint64 `json:"effect_runs"`
	Flushes         uint64 `json:"flushes"`
	CyclesDetected  uint64 `json:"cycles_detected"`
	RecoveredPanics uint64 `json:"recovered_panics"`
}

// Stats returns the runtime counters.
func Stats() GraphStats {
	return GraphStats{
		SignalsCreated:  counters.signalsCreated.Load(),
		MemosCreated:    counters.memosCreated.Load(),
		EffectsCreated:  counters.effectsCreated.Load(),
		OwnersCreated:   counters.ownersCreated.Load(),
		LiveMemos:       counters.liveMemos.Load(),
		LiveEffects:     counters.liveEffects.Load(),
		LiveOwners:      counters.liveOwners.Load(),
		Writes:          counters.writes.Load(),
		Recomputes:      counters.recomputes.Load(),
		EffectRuns:      counters.effectRuns.Load(),
		Flushes:         counters.flushes.Load(),
		CyclesDetected:  counters.cycles.Load(),
		RecoveredPanics: counters.recoveredPanics.Load(),
	}
}

// nodeHandle is the indirection the registry watches. Each node keeps a
// strong reference to its own handle, so a handle dies exactly when its
// node does and the weak pointer below reads nil afterwards. The registry
// itself never extends a node's lifetime.
type nodeHandle struct {
	node graphNode
}

var (
	graphDebug atomic.Bool
	registryMu sync.Mutex
	registry   map[uint64]weak.Pointer[nodeHandle]
)

// EnableGraphDebug starts registering nodes created from now on for
// GraphSnapshot and Orphans. Nodes created earlier stay invisible.
func EnableGraphDebug() {
	registryMu.Lock()
	if registry == nil {
		registry = make(map[uint64]weak.Pointer[nodeHandle])
	}
	registryMu.Unlock()
	graphDebug.Store(true)
}

// DisableGraphDebug stops registration and drops the registry.
func DisableGraphDebug() {
	graphDebug.Store(false)
	registryMu.Lock()
	registry = nil
	registryMu.Unlock()
}

// GraphDebugEnabled reports whether the registry is collecting nodes.
func GraphDebugEnabled() bool {
	return graphDebug.Load()
}

func registerNode(n graphNode) *nodeHandle {
	if !graphDebug.Load() {
		return nil
	}
	h := &nodeHandle{node: n}
	registryMu.Lock()
	if registry != nil {
		registry[n.ID()] = weak.Make(h)
	}
	registryMu.Unlock()
	return h
}

// NodeInfo is one node's snapshot entry. Deps lists the ids of sources the
// node read on its last run, Subs the ids of its current subscribers.
type NodeInfo struct {
	ID    uint64
	Kind  NodeKind
	Name  string
	State NodeState
	Deps  []uint64
	Subs  []uint64
}

// GraphSnapshot returns every registered node still alive, sorted by id.
// Entries whose nodes were collected are pruned as a side effect.
func GraphSnapshot() []NodeInfo {
	registryMu.Lock()
	nodes := make([]graphNode, 0, len(registry))
	for id, wp := range registry {
		h := wp.Value()
		if h == nil {
			delete(registry, id)
			continue
		}
		nodes = append(nodes, h.node)
	}
	registryMu.Unlock()

	infos := make([]NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		infos = append(infos, NodeInfo{
			ID:    n.ID(),
			Kind:  n.nodeKind(),
			Name:  n.nodeName(),
			State: n.nodeState(),
			Deps:  n.sourceIDs(),
			Subs:  n.subscriberIDs(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Orphans returns live registered nodes that still hold an edge to a
// disposed node. They usually point at a missing rerun or a teardown-order
// bug. Edges to unregistered nodes are assumed healthy.
func Orphans() []NodeInfo {
	snap := GraphSnapshot()
	states := make(map[uint64]NodeState, len(snap))
	for _, n := range snap {
		states[n.ID] = n.State
	}

	var out []NodeInfo
	for _, n := range snap {
		if n.State == StateDisposed {
			continue
		}
		if hasDisposedRef(n.Deps, states) || hasDisposedRef(n.Subs, states) {
			out = append(out, n)
		}
	}
	return out
}

func hasDisposedRef(ids []uint64, states map[uint64]NodeState) bool {
	for _, id := range ids {
		if states[id] == StateDisposed {
			return true
		}
	}
	return false
}

// Hooks receives runtime events. Nil fields are skipped. Callbacks run
// inline on the goroutine that produced the event and must be fast.
type Hooks struct {
	SignalWrite   func(id uint64, name string)
	MemoRecompute func(id uint64, name string, d time.Duration, errored bool)
	EffectRun     func(id uint64, name string, d time.Duration, panicked bool)
	BatchFlush    func(effects int, d time.Duration)
	CycleDetected func(id uint64, name string)
	NodeCreated   func(id uint64, kind NodeKind, name string)
	NodeDisposed  func(id uint64, kind NodeKind, name string)
}

var (
	hooksMu   sync.RWMutex
	hooksList []*Hooks
	hooksOn   atomic.Bool
)

// AddHooks registers h and returns its remover. Multiple hook sets compose;
// removal copies the list, so emitters iterating concurrently stay safe.
func AddHooks(h *Hooks) func() {
	if h == nil {
		return func() {}
	}
	hooksMu.Lock()
	hooksList = append(hooksList, h)
	hooksOn.Store(true)
	hooksMu.Unlock()

	return func() {
		hooksMu.Lock()
		next := make([]*Hooks, 0, len(hooksList))
		for _, cur := range hooksList {
			if cur != h {
				next = append(next, cur)
			}
		}
		hooksList = next
		hooksOn.Store(len(next) > 0)
		hooksMu.Unlock()
	}
}

func activeHooks() []*Hooks {
	hooksMu.RLock()
	hs := hooksList
	hooksMu.RUnlock()
	return hs
}

func emitSignalWrite(id uint64, name string) {
	if !hooksOn.Load() {
		return
	}
	for _, h := range activeHooks() {
		if h.SignalWrite != nil {
			h.SignalWrite(id, name)
		}
	}
}

func emitMemoRecompute(id uint64, name string, d time.Duration, errored bool) {
	if !hooksOn.Load() {
		return
	}
	for _, h := range activeHooks() {
		if h.MemoRecompute != nil {
			h.MemoRecompute(id, name, d, errored)
		}
	}
}

func emitEffectRun(id uint64, name string, d time.Duration, panicked bool) {
	if !hooksOn.Load() {
		return
	}
	for _, h := range activeHooks() {
		if h.EffectRun != nil {
			h.EffectRun(id, name, d, panicked)
		}
	}
}

func emitBatchFlush(effects int, d time.Duration) {
	if !hooksOn.Load() {
		return
	}
	for _, h := range activeHooks() {
		if h.BatchFlush != nil {
			h.BatchFlush(effects, d)
		}
	}
}

func emitCycle(id uint64, name string) {
	if !hooksOn.Load() {
		return
	}
	for _, h := range activeHooks() {
		if h.CycleDetected != nil {
			h.CycleDetected(id, name)
		}
	}
}

func emitNodeCreated(id uint64, kind NodeKind, name string) {
	if !hooksOn.Load() {
		return
	}
	for _, h := range activeHooks() {
		if h.NodeCreated != nil {
			h.NodeCreated(id, kind, name)
		}
	}
}

func emitNodeDisposed(id uint64, kind NodeKind, name string) {
	if !hooksOn.Load() {
		return
	}
	for _, h := range activeHooks() {
		if h.NodeDisposed != nil {
			h.NodeDisposed(id, kind, name)
		}
	}
}
