package reactive

// Listener is anything that can be notified when a dependency changes.
// This interface is implemented by memos and effects, and can be implemented
// by external consumers that bridge the graph into other systems.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has changed.
	// For memos, this invalidates the cached value.
	// For effects, this schedules the effect to re-run.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during marking and batch processing.
	ID() uint64
}

// Cleanup is a function returned by effects to clean up resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// runnable is a listener that can be executed by the drain loop after a
// propagation pass marks it pending. Effects and eager memos implement it.
type runnable interface {
	Listener

	// runPending performs the deferred work for a pending mark: an effect
	// re-runs its function, an eager memo recomputes. A *CycleError is
	// returned to the drain so the write that triggered the pass can
	// surface it; ordinary compute failures stay on the node and return nil.
	runPending() error

	// clearPending resets the pending flag without running, used when a
	// drain is aborted so a later mark can re-schedule the node.
	clearPending()
}
