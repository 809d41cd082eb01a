package reactive

import (
	"sort"
	"time"
)

// =============================================================================
// Node Introspection
// =============================================================================

// NodeKind identifies what a node in the graph is.
type NodeKind uint8

const (
	KindSource NodeKind = iota + 1
	KindDerived
	KindTask
	KindEffect
	KindScope
)

// String returns a human-readable name for the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindSource:
		return "signal"
	case KindDerived:
		return "memo"
	case KindTask:
		return "task"
	case KindEffect:
		return "effect"
	case KindScope:
		return "scope"
	default:
		return "unknown"
	}
}

// NodeStatus describes a node's lifecycle position at snapshot time.
type NodeStatus uint8

const (
	StatusClean NodeStatus = iota + 1
	StatusDirty
	StatusComputing
	StatusDisposed
)

// String returns a human-readable name for the status.
func (s NodeStatus) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusDirty:
		return "dirty"
	case StatusComputing:
		return "computing"
	case StatusDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// NodeInfo is an observational snapshot of a live node. Taking a snapshot
// never triggers recomputation: Value is the last materialized value even if
// the node is currently dirty.
type NodeInfo struct {
	ID       uint64     `json:"id"`
	Name     string     `json:"name,omitempty"`
	Kind     NodeKind   `json:"-"`
	KindName string     `json:"kind"`
	Status   NodeStatus `json:"-"`
	State    string     `json:"status"`

	// Value is the cached value, or nil for effects and scopes.
	Value any `json:"value,omitempty"`

	// HasError reports whether the node currently carries a stored error.
	HasError bool `json:"hasError,omitempty"`

	// Deps and Subs count current dependency and dependent edges.
	Deps int `json:"deps"`
	Subs int `json:"subs"`

	// CallSite is the creation site, recorded only when
	// Debug.IncludeCallSites is set.
	CallSite string `json:"callSite,omitempty"`
}

// Edge is one dependency edge in the graph: Dependent read Source during its
// last successful computation.
type Edge struct {
	Source    uint64 `json:"source"`
	Dependent uint64 `json:"dependent"`
}

// =============================================================================
// Observer Events
// =============================================================================

// WriteEvent describes a completed write to a source node.
type WriteEvent struct {
	NodeID  uint64
	Name    string
	Changed bool // false when the equality strategy made the write a no-op
	Time    time.Time
}

// RecomputeEvent describes one derived-node recomputation.
type RecomputeEvent struct {
	NodeID   uint64
	Name     string
	Kind     NodeKind
	Start    time.Time
	Duration time.Duration
	Err      error // nil on success
}

// PropagationEvent describes one full propagation pass: the dirty-marking
// walk from a changed node plus the eager drain that followed.
type PropagationEvent struct {
	OriginID   uint64 // zero for batch flushes
	OriginName string
	Marked     int // dependents marked dirty, deduplicated
	EagerRuns  int // effects run and eager memos recomputed in the drain
	Start      time.Time
	Duration   time.Duration
}

// TaskFetchOutcome describes how a task fetch ended.
type TaskFetchOutcome uint8

const (
	// FetchApplied means the result was written back to the task.
	FetchApplied TaskFetchOutcome = iota + 1
	// FetchSuperseded means a newer generation started first; the result
	// was discarded.
	FetchSuperseded
	// FetchDiscarded means the task was disposed before the result landed.
	FetchDiscarded
)

// String returns a human-readable name for the outcome.
func (o TaskFetchOutcome) String() string {
	switch o {
	case FetchApplied:
		return "applied"
	case FetchSuperseded:
		return "superseded"
	case FetchDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// TaskFetchEvent describes a task fetch start or settlement.
type TaskFetchEvent struct {
	NodeID     uint64
	Name       string
	Generation uint64
	Start      time.Time
	Duration   time.Duration    // zero on start events
	Outcome    TaskFetchOutcome // zero on start events
	Err        error            // the fetch error, if it settled with one
}

// BudgetEvent describes an update-budget violation.
type BudgetEvent struct {
	NodeID uint64
	Name   string
	Kind   NodeKind
	Max    int
	Window time.Duration
	Time   time.Time
}

// Observer receives graph lifecycle events. All callbacks are purely
// observational and must not mutate the graph; they are invoked
// synchronously on the goroutine that produced the event, so they should
// return quickly. Embed NopObserver to implement a subset.
type Observer interface {
	NodeCreated(NodeInfo)
	NodeDisposed(NodeInfo)
	WriteApplied(WriteEvent)
	Recomputed(RecomputeEvent)
	PropagationEnded(PropagationEvent)
	TaskFetchStarted(TaskFetchEvent)
	TaskFetchSettled(TaskFetchEvent)
	BudgetExceeded(BudgetEvent)
}

// NopObserver implements Observer with no-ops. Embed it to write observers
// that care about a subset of events.
type NopObserver struct{}

func (NopObserver) NodeCreated(NodeInfo)              {}
func (NopObserver) NodeDisposed(NodeInfo)             {}
func (NopObserver) WriteApplied(WriteEvent)           {}
func (NopObserver) Recomputed(RecomputeEvent)         {}
func (NopObserver) PropagationEnded(PropagationEvent) {}
func (NopObserver) TaskFetchStarted(TaskFetchEvent)   {}
func (NopObserver) TaskFetchSettled(TaskFetchEvent)   {}
func (NopObserver) BudgetExceeded(BudgetEvent)        {}

var _ Observer = NopObserver{}

// =============================================================================
// Registry Snapshots
// =============================================================================

// registryEntry is the runtime's non-owning handle to a live node. The
// closures read the node's current state on demand; the entry is purged when
// the node is disposed, so holding a snapshot never extends a node's life.
type registryEntry struct {
	info  func() NodeInfo
	edges func() []uint64 // IDs of current dependency sources
}

// Nodes returns a snapshot of all live nodes, ordered by ID.
func (rt *Runtime) Nodes() []NodeInfo {
	rt.regMu.RLock()
	entries := make([]registryEntry, 0, len(rt.registry))
	for _, e := range rt.registry {
		entries = append(entries, e)
	}
	rt.regMu.RUnlock()

	infos := make([]NodeInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, e.info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Node returns a snapshot of a single live node by ID.
func (rt *Runtime) Node(id uint64) (NodeInfo, bool) {
	rt.regMu.RLock()
	e, ok := rt.registry[id]
	rt.regMu.RUnlock()
	if !ok {
		return NodeInfo{}, false
	}
	return e.info(), true
}

// Edges returns a snapshot of all dependency edges between live nodes,
// ordered by dependent then source.
func (rt *Runtime) Edges() []Edge {
	rt.regMu.RLock()
	type pair struct {
		id uint64
		e  registryEntry
	}
	pairs := make([]pair, 0, len(rt.registry))
	for id, e := range rt.registry {
		pairs = append(pairs, pair{id, e})
	}
	rt.regMu.RUnlock()

	var edges []Edge
	for _, p := range pairs {
		if p.e.edges == nil {
			continue
		}
		for _, src := range p.e.edges() {
			edges = append(edges, Edge{Source: src, Dependent: p.id})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Dependent != edges[j].Dependent {
			return edges[i].Dependent < edges[j].Dependent
		}
		return edges[i].Source < edges[j].Source
	})
	return edges
}

// register adds a node to the runtime's registry and announces it.
func (rt *Runtime) register(id uint64, entry registryEntry) {
	rt.regMu.Lock()
	rt.registry[id] = entry
	rt.regMu.Unlock()
	rt.emitNodeCreated(entry.info())
}

// unregister purges a node from the registry and announces the disposal.
// info is captured by the caller before the node severs its edges.
func (rt *Runtime) unregister(id uint64, info NodeInfo) {
	rt.regMu.Lock()
	delete(rt.registry, id)
	rt.regMu.Unlock()
	rt.budget.forget(id)
	rt.emitNodeDisposed(info)
}
