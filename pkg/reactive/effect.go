package reactive

import (
	"sync"
	"sync/atomic"
	"time"
)

// Effect is a reactive side effect that re-runs when its dependencies change.
//
// Effects run immediately when created, tracking every signal, memo, and task
// read during execution. A change to any of those re-runs the effect as part
// of the propagation pass triggered by the write. The effect function can
// return a Cleanup that is called before the next run and on disposal.
type Effect struct {
	id   uint64
	name string
	rt   *Runtime

	callSite string

	// fn is the effect body.
	fn func() Cleanup

	// cleanup is the cleanup function from the last run.
	cleanup Cleanup

	// sources are the nodes read during the last successful run.
	sources   []*nodeBase
	sourcesMu sync.Mutex

	// pending marks the effect queued in the current drain.
	pending atomic.Bool

	// disposed latches once the effect is torn down.
	disposed atomic.Bool

	// runs counts completed executions, for tests and introspection.
	runs atomic.Uint64
}

// EffectOption configures an Effect at creation.
type EffectOption interface {
	isEffectOption()
	applyEffect(e *Effect)
}

type effectOptionFunc func(*Effect)

func (f effectOptionFunc) isEffectOption()       {}
func (f effectOptionFunc) applyEffect(e *Effect) { f(e) }

// WithEffectName sets the effect's diagnostic name, shown in logs, observer
// events, and introspection.
func WithEffectName(name string) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.name = name
	})
}

// CreateEffect creates an effect in the goroutine's active runtime and runs
// it immediately. If a scope is active, the effect is registered to it and
// disposed with it.
//
// Example:
//
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    fmt.Println("count is", count.Get())
//	    return nil
//	})
func CreateEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	rt := currentRuntime()
	e := &Effect{
		id: nextID(),
		rt: rt,
		fn: fn,
	}
	if Debug.IncludeCallSites {
		e.callSite = captureCallSite(2)
	}
	for _, opt := range opts {
		opt.applyEffect(e)
	}

	adoptIntoScope(rt, e)
	rt.register(e.id, registryEntry{info: e.info, edges: e.edges})

	e.run()
	return e
}

// MarkDirty schedules the effect to re-run in the drain that ends the
// current propagation pass. Idempotent while pending. Implements Listener.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}
	if e.pending.CompareAndSwap(false, true) {
		e.rt.countMark()
		e.rt.enqueueRun(e)
	}
}

// ID returns the unique identifier for this effect. Implements Listener.
func (e *Effect) ID() uint64 {
	return e.id
}

// Name returns the diagnostic name, if one was set.
func (e *Effect) Name() string {
	return e.name
}

// Runs returns the number of completed executions.
func (e *Effect) Runs() uint64 {
	return e.runs.Load()
}

// IsDisposed reports whether the effect has been disposed.
func (e *Effect) IsDisposed() bool {
	return e.disposed.Load()
}

// runPending executes a queued re-run. Implements runnable.
func (e *Effect) runPending() error {
	if !e.pending.CompareAndSwap(true, false) {
		return nil
	}
	return e.run()
}

// clearPending implements runnable.
func (e *Effect) clearPending() {
	e.pending.Store(false)
}

// run executes the effect body with dependency tracking. An ordinary panic
// in the body is contained: it is logged, the previous dependency set is
// kept so a later change retries, and the drain continues. A *CycleError is
// returned so the originating write surfaces it.
func (e *Effect) run() error {
	if e.disposed.Load() {
		return nil
	}

	e.runCleanup()

	rt := e.rt
	restore := rt.activate()
	defer restore()

	start := time.Now()
	frame := rt.pushFrame(e)

	var runErr error
	cleanup := func() (c Cleanup) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if ce, ok := r.(*CycleError); ok {
				runErr = ce
				return
			}
			runErr = &ComputeError{
				NodeID:    e.id,
				Name:      e.name,
				Kind:      KindEffect,
				Cause:     recoveredError(r),
				Recovered: true,
			}
		}()
		return e.fn()
	}()

	rt.popFrame()

	if runErr == nil {
		e.sourcesMu.Lock()
		e.sources = commitSources(e, e.sources, frame.reads)
		e.sourcesMu.Unlock()
		e.cleanup = cleanup
	} else {
		discardSources(frame)
		rt.log().Error("effect run failed",
			"name", e.name,
			"id", e.id,
			"err", runErr,
		)
	}

	e.runs.Add(1)
	rt.emitRecompute(RecomputeEvent{
		NodeID:   e.id,
		Name:     e.name,
		Kind:     KindEffect,
		Start:    start,
		Duration: time.Since(start),
		Err:      runErr,
	})

	if ce, ok := runErr.(*CycleError); ok {
		return ce
	}
	return nil
}

// runCleanup invokes and clears the previous run's cleanup. A panicking
// cleanup is logged and does not stop the run.
func (e *Effect) runCleanup() {
	if e.cleanup == nil {
		return
	}
	cleanup := e.cleanup
	e.cleanup = nil
	defer func() {
		if r := recover(); r != nil {
			e.rt.log().Error("effect cleanup panicked",
				"name", e.name,
				"id", e.id,
				"err", recoveredError(r),
			)
		}
	}()
	cleanup()
}

// Dispose tears the effect down: subscriptions are severed first so no
// propagation can touch a half-torn-down effect, then the last cleanup runs.
// Idempotent.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}
	info := e.info()

	e.sourcesMu.Lock()
	for _, src := range e.sources {
		src.unsubscribe(e)
	}
	e.sources = nil
	e.sourcesMu.Unlock()

	e.runCleanup()

	e.rt.unregister(e.id, info)
}

// edges lists the IDs of the current dependency sources.
func (e *Effect) edges() []uint64 {
	e.sourcesMu.Lock()
	defer e.sourcesMu.Unlock()
	ids := make([]uint64, len(e.sources))
	for i, src := range e.sources {
		ids[i] = src.id
	}
	return ids
}

// info snapshots the effect for introspection.
func (e *Effect) info() NodeInfo {
	status := StatusClean
	if e.disposed.Load() {
		status = StatusDisposed
	}
	e.sourcesMu.Lock()
	deps := len(e.sources)
	e.sourcesMu.Unlock()
	return NodeInfo{
		ID:       e.id,
		Name:     e.name,
		Kind:     KindEffect,
		KindName: KindEffect.String(),
		Status:   status,
		State:    status.String(),
		Deps:     deps,
		CallSite: e.callSite,
	}
}

var _ runnable = (*Effect)(nil)
