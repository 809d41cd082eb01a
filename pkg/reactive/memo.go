package reactive

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Memo is a cached derived value that automatically tracks its dependencies.
// When any dependency changes, the memo is marked dirty and recomputes on the
// next read.
//
// Memos are lazy by default: the compute function only runs when Get is
// called on a dirty memo. If multiple dependencies change before a read, the
// memo still recomputes once. WithEager switches a memo to recompute as part
// of the propagation pass itself.
//
// Memos subscribe like signals, so chains of derived values compose freely.
type Memo[T any] struct {
	base nodeBase

	// compute produces the memo's value. For NewMemo the error is always nil.
	compute func() (T, error)

	// value is the cached value of the last successful computation.
	value T

	// err is the stored failure of the last computation, nil after success.
	// Re-surfaced by TryGet until a later recomputation clears it.
	err error

	// valueMu protects value and err.
	valueMu sync.RWMutex

	// valid indicates whether the cached state (value or error) is current.
	// When false, the next read recomputes.
	valid atomic.Bool

	// computingGID holds the goroutine ID of an in-flight recompute, zero
	// when idle. Re-entry from the same goroutine is a dependency cycle.
	computingGID atomic.Uint64

	// sources are the nodes read during the last successful computation.
	sources   []*nodeBase
	sourcesMu sync.Mutex

	// equal decides whether a recomputation changed the value.
	// nil means identity equality.
	equal func(T, T) bool

	// eager schedules recomputation during propagation instead of on read.
	eager bool

	// pending marks an eager memo queued in the current drain.
	pending atomic.Bool

	// runs counts completed recomputations, for tests and introspection.
	runs atomic.Uint64
}

// NewMemo creates a derived value in the goroutine's active runtime.
// The computation does not run until the first read.
func NewMemo[T any](compute func() T) *Memo[T] {
	return NewMemoE(func() (T, error) {
		return compute(), nil
	})
}

// NewMemoE creates a derived value whose computation can fail. A returned
// error is stored on the memo: Get yields the zero value and TryGet returns
// the error until a later recomputation succeeds.
func NewMemoE[T any](compute func() (T, error)) *Memo[T] {
	rt := currentRuntime()
	m := &Memo[T]{
		base:    newNodeBase(rt, KindDerived),
		compute: compute,
	}
	adoptIntoScope(rt, m)
	rt.register(m.base.id, registryEntry{info: m.info, edges: m.edges})
	return m
}

// WithName sets the memo's diagnostic name. No semantic effect.
func (m *Memo[T]) WithName(name string) *Memo[T] {
	m.base.name = name
	return m
}

// WithEquals configures a custom equality strategy for change detection.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

// WithEager switches the memo to eager recomputation: instead of waiting for
// the next read, it recomputes during the propagation pass that marked it,
// after its own dirty dependencies have settled. The initial computation runs
// immediately so the memo is subscribed to its dependencies from the start.
func (m *Memo[T]) WithEager() *Memo[T] {
	m.eager = true
	if !m.valid.Load() {
		m.recompute()
	}
	return m
}

// Get returns the memo's value, recomputing if dirty. Registers the read
// with the active tracking frame, if any. A disposed or errored memo yields
// the zero value; TryGet distinguishes those states.
func (m *Memo[T]) Get() T {
	if m.base.disposed.Load() {
		var zero T
		return zero
	}

	m.base.rt.ctx().recordRead(&m.base)

	if !m.valid.Load() {
		m.recompute()
	}

	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	if m.err != nil {
		var zero T
		return zero
	}
	return m.value
}

// TryGet returns the memo's value, recomputing if dirty. It returns a
// *DisposalError for a disposed memo, or the stored computation error
// (*ComputeError or *CycleError) while the memo is in an error state.
// Tracked like Get.
func (m *Memo[T]) TryGet() (T, error) {
	if m.base.disposed.Load() {
		var zero T
		return zero, m.disposalErr("get")
	}

	m.base.rt.ctx().recordRead(&m.base)

	if !m.valid.Load() {
		m.recompute()
	}

	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	if m.err != nil {
		var zero T
		return zero, m.err
	}
	return m.value, nil
}

// Peek returns the memo's value without registering a dependency.
// Still recomputes if dirty.
func (m *Memo[T]) Peek() T {
	if m.base.disposed.Load() {
		var zero T
		return zero
	}
	if !m.valid.Load() {
		m.recompute()
	}
	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.value
}

// Err returns the stored computation error, or nil. Untracked.
func (m *Memo[T]) Err() error {
	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.err
}

// MarkDirty invalidates the cached value and transitively marks dependents.
// Idempotent within a propagation pass: a memo reachable through multiple
// paths is marked once. Implements Listener.
func (m *Memo[T]) MarkDirty() {
	if m.base.disposed.Load() {
		return
	}
	if m.valid.CompareAndSwap(true, false) {
		rt := m.base.rt
		rt.countMark()
		m.base.notify(rt.ctx())
		if m.eager && m.pending.CompareAndSwap(false, true) {
			rt.enqueueRun(m)
		}
	}
}

// ID returns the unique identifier for this memo. Implements Listener.
func (m *Memo[T]) ID() uint64 {
	return m.base.id
}

// Name returns the diagnostic name, if one was set.
func (m *Memo[T]) Name() string {
	return m.base.name
}

// Runs returns the number of completed recomputations.
func (m *Memo[T]) Runs() uint64 {
	return m.runs.Load()
}

// IsDisposed reports whether the memo has been disposed.
func (m *Memo[T]) IsDisposed() bool {
	return m.base.disposed.Load()
}

// runPending recomputes a queued eager memo. Implements runnable.
func (m *Memo[T]) runPending() error {
	if !m.pending.CompareAndSwap(true, false) {
		return nil
	}
	if m.base.disposed.Load() || m.valid.Load() {
		return nil
	}
	m.recompute()

	// Only cycles bubble out of the drain; ordinary failures stay stored.
	m.valueMu.RLock()
	err := m.err
	m.valueMu.RUnlock()
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// clearPending implements runnable.
func (m *Memo[T]) clearPending() {
	m.pending.Store(false)
}

// Dispose removes the memo from the graph: dependencies and dependents are
// severed and cached state is released. Idempotent.
func (m *Memo[T]) Dispose() {
	if m.base.disposed.Swap(true) {
		return
	}
	info := m.info()

	m.base.severSubs()

	m.sourcesMu.Lock()
	for _, src := range m.sources {
		src.unsubscribe(m)
	}
	m.sources = nil
	m.sourcesMu.Unlock()

	m.valueMu.Lock()
	var zero T
	m.value = zero
	m.err = nil
	m.valueMu.Unlock()

	m.base.rt.unregister(m.base.id, info)
}

// recompute runs the computation, commits the fresh dependency set on
// success, and stores the value or error. Reading this memo again from the
// same goroutine before recompute finishes is a dependency cycle: the inner
// read panics with a *CycleError that unwinds the compute stack; every
// computation in the chain fails and the re-entered memo stores the cycle.
func (m *Memo[T]) recompute() {
	gid := getGoroutineID()
	if !m.computingGID.CompareAndSwap(0, gid) {
		if m.computingGID.Load() == gid {
			panic(&CycleError{NodeID: m.base.id, Name: m.base.name})
		}
		// Another goroutine is mid-compute; serve the current snapshot.
		return
	}
	defer m.computingGID.Store(0)

	rt := m.base.rt
	restore := rt.activate()
	defer restore()

	start := time.Now()
	frame := rt.pushFrame(m)

	var rethrow *CycleError
	newValue, err := func() (v T, err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if ce, ok := r.(*CycleError); ok {
				if ce.NodeID == m.base.id {
					// The cycle closes here: this memo was re-entered.
					err = ce
					return
				}
				// A dependency's failure; keep unwinding after the
				// bookkeeping below runs.
				err = &ComputeError{NodeID: m.base.id, Name: m.base.name, Kind: m.base.kind, Cause: ce}
				rethrow = ce
				return
			}
			err = &ComputeError{
				NodeID:    m.base.id,
				Name:      m.base.name,
				Kind:      m.base.kind,
				Cause:     recoveredError(r),
				Recovered: true,
			}
		}()
		return m.compute()
	}()

	rt.popFrame()

	if err == nil {
		m.sourcesMu.Lock()
		m.sources = commitSources(m, m.sources, frame.reads)
		m.sourcesMu.Unlock()
	} else {
		// A failed computation keeps the previous dependency set, so a
		// later change to those dependencies retries it.
		discardSources(frame)
		if !errors.As(err, new(*CycleError)) {
			err = m.wrapComputeErr(err)
		}
	}

	m.valueMu.Lock()
	if err == nil {
		// An unchanged result keeps the previous value, so readers keep
		// seeing the same object and their own equality checks can
		// short-circuit on identity.
		if !m.equals(m.value, newValue) {
			m.value = newValue
		}
		m.err = nil
	} else {
		m.err = err
	}
	m.valueMu.Unlock()

	m.valid.Store(true)
	m.runs.Add(1)

	if Debug.LogRecomputes {
		rt.log().Debug("memo recomputed",
			"name", m.base.name,
			"id", m.base.id,
			"err", err,
			"duration", time.Since(start),
		)
	}
	rt.emitRecompute(RecomputeEvent{
		NodeID:   m.base.id,
		Name:     m.base.name,
		Kind:     m.base.kind,
		Start:    start,
		Duration: time.Since(start),
		Err:      err,
	})

	if rethrow != nil {
		panic(rethrow)
	}
}

// wrapComputeErr ensures stored errors carry node identity. Errors that are
// already part of the taxonomy pass through unchanged.
func (m *Memo[T]) wrapComputeErr(err error) error {
	var (
		compute  *ComputeError
		disposal *DisposalError
	)
	if errors.As(err, &compute) || errors.As(err, &disposal) {
		return err
	}
	return &ComputeError{NodeID: m.base.id, Name: m.base.name, Kind: m.base.kind, Cause: err}
}

// edges lists the IDs of the current dependency sources.
func (m *Memo[T]) edges() []uint64 {
	m.sourcesMu.Lock()
	defer m.sourcesMu.Unlock()
	ids := make([]uint64, len(m.sources))
	for i, src := range m.sources {
		ids[i] = src.id
	}
	return ids
}

// info snapshots the memo for introspection. The cached value is reported
// as-is: inspection never triggers recomputation.
func (m *Memo[T]) info() NodeInfo {
	status := StatusClean
	switch {
	case m.base.disposed.Load():
		status = StatusDisposed
	case m.computingGID.Load() != 0:
		status = StatusComputing
	case !m.valid.Load():
		status = StatusDirty
	}

	m.valueMu.RLock()
	value := any(m.value)
	hasErr := m.err != nil
	m.valueMu.RUnlock()

	m.sourcesMu.Lock()
	deps := len(m.sources)
	m.sourcesMu.Unlock()

	return NodeInfo{
		ID:       m.base.id,
		Name:     m.base.name,
		Kind:     m.base.kind,
		KindName: m.base.kind.String(),
		Status:   status,
		State:    status.String(),
		Value:    value,
		HasError: hasErr,
		Deps:     deps,
		Subs:     m.base.subsCount(),
		CallSite: m.base.callSite,
	}
}

// equals applies the configured equality strategy, defaulting to identity.
func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return identityEquals(a, b)
}

// disposalErr builds the typed error for an operation on a disposed memo.
func (m *Memo[T]) disposalErr(op string) error {
	return &DisposalError{Op: op, NodeID: m.base.id, Name: m.base.name, Kind: m.base.kind}
}

var _ runnable = (*Memo[int])(nil)
