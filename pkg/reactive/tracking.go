package reactive

import (
	"runtime"
	"time"
)

// trackingContext holds the ambient reactive state for one goroutine within
// one Runtime. Two runtimes used on the same goroutine keep separate
// contexts, so their tracking never mixes.
type trackingContext struct {
	// currentScope is the scope that will own newly created nodes.
	currentScope *Scope

	// frames is the dependency-collection stack. The top frame belongs to
	// the computation currently running; reads record into it. An empty
	// stack means reads are untracked. A frame with a nil listener is an
	// untracked window pushed by Untracked.
	frames []*trackFrame

	// batchDepth tracks nested Batch() calls. When > 0, writes queue their
	// notifications instead of marking immediately.
	batchDepth int

	// pendingMarks accumulates listeners to notify when the outermost batch
	// completes. Deduplicated by ID before notification.
	pendingMarks []Listener

	// pendingRuns holds effects and eager memos awaiting the drain that ends
	// the current propagation pass.
	pendingRuns []runnable

	// draining is true while drainPending is looping; nested writes see it
	// and leave their queued work for the outer loop.
	draining bool

	// Propagation pass bookkeeping, valid while passActive.
	passActive     bool
	passOriginID   uint64
	passOriginName string
	passStart      time.Time
	passMarked     int
	passEagerRuns  int
}

// trackFrame collects the nodes read during one tracked computation.
// Subscriptions are committed only after the computation succeeds, so a
// failing compute never installs a partial dependency set.
type trackFrame struct {
	listener Listener
	reads    []*nodeBase
}

// record notes that the computation read n. Deduplicates by pointer; the
// dependency sets in play are small, so a linear scan beats a map.
func (f *trackFrame) record(n *nodeBase) {
	for _, existing := range f.reads {
		if existing == n {
			return
		}
	}
	f.reads = append(f.reads, n)
}

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header. This is an implementation detail
// and is never exposed.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// ctx returns the tracking context for the current goroutine, creating it
// on first use.
func (rt *Runtime) ctx() *trackingContext {
	gid := getGoroutineID()
	if v, ok := rt.contexts.Load(gid); ok {
		return v.(*trackingContext)
	}
	ctx := &trackingContext{}
	rt.contexts.Store(gid, ctx)
	return ctx
}

// currentListener returns the listener of the innermost tracking frame, or
// nil when reads are untracked.
func (ctx *trackingContext) currentListener() Listener {
	if n := len(ctx.frames); n > 0 {
		return ctx.frames[n-1].listener
	}
	return nil
}

// recordRead registers a read of n into the innermost frame, if tracking is
// active. Returns the listener that will depend on n, or nil.
func (ctx *trackingContext) recordRead(n *nodeBase) Listener {
	top := len(ctx.frames) - 1
	if top < 0 {
		return nil
	}
	f := ctx.frames[top]
	if f.listener == nil {
		return nil
	}
	f.record(n)
	return f.listener
}

// pushFrame starts dependency collection for l. A nil listener opens an
// untracked window.
func (rt *Runtime) pushFrame(l Listener) *trackFrame {
	ctx := rt.ctx()
	f := &trackFrame{listener: l}
	ctx.frames = append(ctx.frames, f)
	return f
}

// popFrame ends the innermost collection frame.
func (rt *Runtime) popFrame() {
	ctx := rt.ctx()
	if n := len(ctx.frames); n > 0 {
		ctx.frames = ctx.frames[:n-1]
	}
}

// commitSources replaces a listener's dependency set with the freshly
// collected one: newly read nodes are subscribed, nodes no longer read are
// unsubscribed. Called only after a successful computation, so the set
// always reflects the last successful run.
func commitSources(l Listener, old []*nodeBase, fresh []*nodeBase) []*nodeBase {
	for _, n := range fresh {
		n.subscribe(l)
	}
	for _, prev := range old {
		found := false
		for _, n := range fresh {
			if n == prev {
				found = true
				break
			}
		}
		if !found {
			prev.unsubscribe(l)
		}
	}
	return fresh
}

// discardSources drops a failed computation's collected reads without
// touching the previous dependency set. Reads never subscribed during
// collection, so there is nothing to undo.
func discardSources(f *trackFrame) {
	f.reads = nil
}

// enqueueRun schedules an effect or eager memo for the drain at the end of
// the current propagation pass. Callers hold the pending CAS, so an item is
// queued at most once until it runs.
func (rt *Runtime) enqueueRun(r runnable) {
	ctx := rt.ctx()
	ctx.pendingRuns = append(ctx.pendingRuns, r)
}

// countMark attributes one dirty mark to the active propagation pass.
func (rt *Runtime) countMark() {
	ctx := rt.ctx()
	if ctx.passActive || ctx.draining {
		ctx.passMarked++
	}
}

// =============================================================================
// Scope Ambient State
// =============================================================================

// currentScope returns the goroutine's active scope in this runtime, or nil.
func (rt *Runtime) currentScope() *Scope {
	return rt.ctx().currentScope
}

// setCurrentScope installs s as the active scope, returning the previous one
// for restoration.
func (rt *Runtime) setCurrentScope(s *Scope) *Scope {
	ctx := rt.ctx()
	old := ctx.currentScope
	ctx.currentScope = s
	return old
}

// =============================================================================
// Untracked Reads
// =============================================================================

// Untracked runs fn without tracking reads as dependencies, using the
// goroutine's active runtime. Reads inside fn do not subscribe the
// computation that called Untracked.
//
// Example:
//
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    mode := mode.Get() // tracked: effect re-runs on change
//	    reactive.Untracked(func() {
//	        logger.Info("mode changed", "total", total.Get()) // not tracked
//	    })
//	    return nil
//	})
//
// Note: for a single read, node.Peek() is more efficient and clearer.
func Untracked(fn func()) {
	currentRuntime().Untracked(fn)
}

// Untracked runs fn without tracking reads as dependencies in this runtime.
func (rt *Runtime) Untracked(fn func()) {
	rt.pushFrame(nil)
	defer rt.popFrame()
	fn()
}
