package reactive

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Runtime owns all ambient reactive state: the per-goroutine tracking
// contexts, the live-node registry, observers, and the update budget.
// Nodes belong to the runtime they were created in and never interact with
// nodes of another runtime, so isolated instances (one per test, one per
// embedded subsystem) cannot interfere.
//
// The package-level constructors use the goroutine's active runtime, which
// defaults to Default(). Use Runtime.Run to create and use nodes in a
// specific instance:
//
//	rt := reactive.NewRuntime()
//	rt.Run(func() {
//	    count := reactive.NewSignal(0)
//	    // count belongs to rt
//	})
type Runtime struct {
	name   string
	logger *slog.Logger

	// contexts holds one trackingContext per goroutine, keyed by goroutine
	// ID. Contexts are lightweight and recreated on demand.
	contexts sync.Map

	// registry indexes live nodes for introspection. Non-owning: entries
	// are purged on disposal.
	registry map[uint64]registryEntry
	regMu    sync.RWMutex

	// observers receive lifecycle events. hasObservers short-circuits event
	// construction on the hot path.
	observers    []Observer
	obsMu        sync.RWMutex
	hasObservers atomic.Bool

	// budget rate-limits effect re-runs and task fetches. nil means
	// unlimited.
	budget *updateBudget
}

// RuntimeOption configures a Runtime at construction.
type RuntimeOption interface {
	isRuntimeOption()
	applyRuntime(*Runtime)
}

type runtimeOptionFunc func(*Runtime)

func (f runtimeOptionFunc) isRuntimeOption()         {}
func (f runtimeOptionFunc) applyRuntime(rt *Runtime) { f(rt) }

// WithLogger sets the runtime's structured logger.
// If unset, slog.Default() is used.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return runtimeOptionFunc(func(rt *Runtime) {
		rt.logger = logger
	})
}

// WithRuntimeName names the runtime for log and event attribution.
func WithRuntimeName(name string) RuntimeOption {
	return runtimeOptionFunc(func(rt *Runtime) {
		rt.name = name
	})
}

// WithBudget installs an update budget on the runtime.
// See BudgetConfig for the limits.
func WithBudget(cfg BudgetConfig) RuntimeOption {
	return runtimeOptionFunc(func(rt *Runtime) {
		rt.budget = newUpdateBudget(cfg)
	})
}

// NewRuntime creates an isolated runtime instance.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		registry: make(map[uint64]registryEntry),
	}
	for _, opt := range opts {
		opt.applyRuntime(rt)
	}
	return rt
}

// defaultRuntime backs the package-level API for callers that never create
// an explicit runtime.
var defaultRuntime = NewRuntime(WithRuntimeName("default"))

// Default returns the package-level default runtime.
func Default() *Runtime {
	return defaultRuntime
}

// Name returns the runtime's configured name.
func (rt *Runtime) Name() string {
	return rt.name
}

// log returns the runtime's logger, falling back to slog.Default().
func (rt *Runtime) log() *slog.Logger {
	if rt.logger != nil {
		return rt.logger
	}
	return slog.Default()
}

// =============================================================================
// Active Runtime Per Goroutine
// =============================================================================

// activeRuntimes maps goroutine ID to that goroutine's runtime stack. Only
// the owning goroutine mutates its own stack; sync.Map handles publication.
var activeRuntimes sync.Map

type runtimeStack struct {
	items []*Runtime
}

// currentRuntime returns the goroutine's active runtime, defaulting to the
// package default. Only node creation consults this; after creation a node
// always operates against the runtime it was born in.
func currentRuntime() *Runtime {
	gid := getGoroutineID()
	if v, ok := activeRuntimes.Load(gid); ok {
		stack := v.(*runtimeStack)
		if n := len(stack.items); n > 0 {
			return stack.items[n-1]
		}
	}
	return defaultRuntime
}

// Run executes fn with this runtime active for the current goroutine.
// Nodes, scopes, and batches created inside fn belong to this runtime.
// Calls nest: the previous active runtime is restored when fn returns.
func (rt *Runtime) Run(fn func()) {
	defer rt.activate()()
	fn()
}

// activate pushes rt onto the goroutine's active-runtime stack and returns
// the restore function. Compute functions and effect bodies run inside an
// activation so that package-level helpers (NewSignal, Untracked, Batch)
// resolve to the node's own runtime.
func (rt *Runtime) activate() func() {
	gid := getGoroutineID()
	var stack *runtimeStack
	if v, ok := activeRuntimes.Load(gid); ok {
		stack = v.(*runtimeStack)
	} else {
		stack = &runtimeStack{}
		activeRuntimes.Store(gid, stack)
	}
	stack.items = append(stack.items, rt)
	return func() {
		stack.items = stack.items[:len(stack.items)-1]
		if len(stack.items) == 0 {
			activeRuntimes.Delete(gid)
		}
	}
}

// =============================================================================
// Observers
// =============================================================================

// Observe registers an observer for this runtime's lifecycle events.
func (rt *Runtime) Observe(o Observer) {
	if o == nil {
		return
	}
	rt.obsMu.Lock()
	rt.observers = append(rt.observers, o)
	rt.hasObservers.Store(true)
	rt.obsMu.Unlock()
}

// Unobserve removes a previously registered observer.
func (rt *Runtime) Unobserve(o Observer) {
	rt.obsMu.Lock()
	for i, existing := range rt.observers {
		if existing == o {
			rt.observers = append(rt.observers[:i], rt.observers[i+1:]...)
			break
		}
	}
	rt.hasObservers.Store(len(rt.observers) > 0)
	rt.obsMu.Unlock()
}

// snapshotObservers copies the observer list so callbacks run without the
// lock held.
func (rt *Runtime) snapshotObservers() []Observer {
	rt.obsMu.RLock()
	obs := make([]Observer, len(rt.observers))
	copy(obs, rt.observers)
	rt.obsMu.RUnlock()
	return obs
}

func (rt *Runtime) emitNodeCreated(info NodeInfo) {
	if !rt.hasObservers.Load() {
		return
	}
	for _, o := range rt.snapshotObservers() {
		o.NodeCreated(info)
	}
}

func (rt *Runtime) emitNodeDisposed(info NodeInfo) {
	if !rt.hasObservers.Load() {
		return
	}
	for _, o := range rt.snapshotObservers() {
		o.NodeDisposed(info)
	}
}

func (rt *Runtime) emitWrite(ev WriteEvent) {
	if !rt.hasObservers.Load() {
		return
	}
	for _, o := range rt.snapshotObservers() {
		o.WriteApplied(ev)
	}
}

func (rt *Runtime) emitRecompute(ev RecomputeEvent) {
	if !rt.hasObservers.Load() {
		return
	}
	for _, o := range rt.snapshotObservers() {
		o.Recomputed(ev)
	}
}

func (rt *Runtime) emitPropagation(ev PropagationEvent) {
	if !rt.hasObservers.Load() {
		return
	}
	for _, o := range rt.snapshotObservers() {
		o.PropagationEnded(ev)
	}
}

func (rt *Runtime) emitTaskFetchStarted(ev TaskFetchEvent) {
	if !rt.hasObservers.Load() {
		return
	}
	for _, o := range rt.snapshotObservers() {
		o.TaskFetchStarted(ev)
	}
}

func (rt *Runtime) emitTaskFetchSettled(ev TaskFetchEvent) {
	if !rt.hasObservers.Load() {
		return
	}
	for _, o := range rt.snapshotObservers() {
		o.TaskFetchSettled(ev)
	}
}

func (rt *Runtime) emitBudgetExceeded(ev BudgetEvent) {
	if !rt.hasObservers.Load() {
		return
	}
	for _, o := range rt.snapshotObservers() {
		o.BudgetExceeded(ev)
	}
}

// =============================================================================
// Propagation
// =============================================================================

// propagateFrom runs a full propagation pass from a changed node: the
// dirty-marking walk over dependents, then the drain of pending effects and
// eager memos. Nested writes that occur while a pass is active (an effect
// writing a signal) fold their marks into the active pass and are drained
// by the outer loop.
func (rt *Runtime) propagateFrom(b *nodeBase) error {
	ctx := rt.ctx()

	if ctx.batchDepth > 0 {
		b.notify(ctx)
		return nil
	}
	if ctx.passActive {
		b.notify(ctx)
		return nil
	}

	return rt.runPass(ctx, b.id, b.name, func() {
		b.notify(ctx)
	})
}

// runPass executes one propagation pass: mark dirties everything reachable,
// then the drain runs pending effects and eager memos. Only one pass runs
// per goroutine at a time; callers must have checked passActive.
func (rt *Runtime) runPass(ctx *trackingContext, originID uint64, originName string, mark func()) error {
	ctx.passActive = true
	ctx.passOriginID = originID
	ctx.passOriginName = originName
	ctx.passStart = time.Now()
	ctx.passMarked = 0
	ctx.passEagerRuns = 0

	mark()
	err := rt.drainPending(ctx)

	ev := PropagationEvent{
		OriginID:   ctx.passOriginID,
		OriginName: ctx.passOriginName,
		Marked:     ctx.passMarked,
		EagerRuns:  ctx.passEagerRuns,
		Start:      ctx.passStart,
		Duration:   time.Since(ctx.passStart),
	}
	ctx.passActive = false

	if Debug.LogPropagation {
		rt.log().Debug("propagation pass",
			"origin", ev.OriginName,
			"originID", ev.OriginID,
			"marked", ev.Marked,
			"eagerRuns", ev.EagerRuns,
			"duration", ev.Duration,
		)
	}
	rt.emitPropagation(ev)
	return err
}

// drainPending runs queued effects and eager memos until the queue is empty.
// Work queued while draining (an effect marking another effect through a
// write) is picked up by the same loop. Returns ErrBudgetExceeded if the
// update budget trips, after clearing the remaining queue so later marks can
// re-schedule. A cycle detected inside a drained recompute is returned to
// the originating write after the rest of the queue drains.
func (rt *Runtime) drainPending(ctx *trackingContext) error {
	if ctx.draining {
		// The outer drain loop will pick up newly queued work.
		return nil
	}
	ctx.draining = true
	defer func() { ctx.draining = false }()

	var firstCycle error
	for len(ctx.pendingRuns) > 0 {
		item := ctx.pendingRuns[0]
		ctx.pendingRuns = ctx.pendingRuns[1:]

		if rt.budget != nil {
			if err := rt.budget.checkRun(item.ID()); err != nil {
				rt.reportBudgetExceeded(item)
				item.clearPending()
				for _, rest := range ctx.pendingRuns {
					rest.clearPending()
				}
				ctx.pendingRuns = nil
				return err
			}
		}

		ctx.passEagerRuns++
		if err := item.runPending(); err != nil && firstCycle == nil {
			firstCycle = err
		}
	}
	return firstCycle
}

// reportBudgetExceeded logs and announces a budget violation.
func (rt *Runtime) reportBudgetExceeded(item runnable) {
	ev := BudgetEvent{
		NodeID: item.ID(),
		Max:    rt.budget.maxRuns,
		Window: rt.budget.window,
		Time:   time.Now(),
	}
	if n, ok := item.(interface{ Name() string }); ok {
		ev.Name = n.Name()
	}
	if k, ok := item.(interface{ Kind() NodeKind }); ok {
		ev.Kind = k.Kind()
	}
	rt.log().Warn("update budget exceeded, dropping pending runs",
		"node", ev.Name,
		"nodeID", ev.NodeID,
		"max", ev.Max,
		"window", ev.Window,
	)
	rt.emitBudgetExceeded(ev)
}
