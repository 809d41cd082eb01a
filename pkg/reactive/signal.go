package reactive

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// nodeBase provides identity, subscriber management, and disposal state.
// It is embedded in Signal[T], Memo[T], and Task[T] to share the graph
// bookkeeping.
type nodeBase struct {
	id   uint64
	name string
	kind NodeKind
	rt   *Runtime

	// callSite is the creation site, captured only when
	// Debug.IncludeCallSites is set.
	callSite string

	// subs are the listeners subscribed to this node: its dependents.
	// Back-references, never ownership.
	subs []Listener

	// subMu protects the subs slice.
	subMu sync.RWMutex

	// disposed latches once the node leaves the graph.
	disposed atomic.Bool
}

// newNodeBase initializes the shared node state for the given runtime.
func newNodeBase(rt *Runtime, kind NodeKind) nodeBase {
	b := nodeBase{
		id:   nextID(),
		kind: kind,
		rt:   rt,
	}
	if Debug.IncludeCallSites {
		b.callSite = captureCallSite(3)
	}
	return b
}

// captureCallSite formats the caller's file:line, skipping skip frames.
func captureCallSite(skip int) string {
	if _, file, line, ok := runtime.Caller(skip); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return ""
}

// subscribe adds a listener to this node's subscribers.
// Deduplicates by listener ID to prevent double-subscription.
func (b *nodeBase) subscribe(l Listener) {
	if l == nil || b.disposed.Load() {
		return
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()

	lid := l.ID()
	for _, existing := range b.subs {
		if existing.ID() == lid {
			return
		}
	}

	b.subs = append(b.subs, l)
}

// unsubscribe removes a listener from this node's subscribers.
func (b *nodeBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()

	lid := l.ID()
	for i, existing := range b.subs {
		if existing.ID() == lid {
			// Remove by swapping with the last element (order is irrelevant)
			b.subs[i] = b.subs[len(b.subs)-1]
			b.subs = b.subs[:len(b.subs)-1]
			return
		}
	}
}

// notify marks every subscriber dirty, or queues them when a batch is open.
// Uses copy-before-notify so no lock is held while marking, which lets a
// mark cascade back into this node's subscriber list safely.
func (b *nodeBase) notify(ctx *trackingContext) {
	b.subMu.RLock()
	subs := make([]Listener, len(b.subs))
	copy(subs, b.subs)
	b.subMu.RUnlock()

	if ctx.batchDepth > 0 {
		for _, sub := range subs {
			ctx.pendingMarks = append(ctx.pendingMarks, sub)
		}
		return
	}
	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// severSubs clears the dependents set, severing the node from the graph.
// Called on disposal before any user disposer runs.
func (b *nodeBase) severSubs() {
	b.subMu.Lock()
	b.subs = nil
	b.subMu.Unlock()
}

// subsCount returns the current number of dependents.
func (b *nodeBase) subsCount() int {
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	return len(b.subs)
}

// Signal is a reactive source value: a settable root node of the graph.
// Reading a Signal during a tracked computation (a memo compute or an effect
// body) makes that computation depend on the signal: it is marked dirty
// whenever the signal's value changes.
//
// Example:
//
//	count := reactive.NewSignal(0)
//	doubled := reactive.NewMemo(func() int { return count.Get() * 2 })
//	count.Set(5)
//	doubled.Get() // 10
type Signal[T any] struct {
	base nodeBase

	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal decides whether a write actually changed the value.
	// nil means identity equality.
	equal func(T, T) bool
}

// NewSignal creates a signal with the given initial value in the
// goroutine's active runtime. If a scope is active, the signal is registered
// to it and disposed with it.
func NewSignal[T any](initial T) *Signal[T] {
	rt := currentRuntime()
	s := &Signal[T]{
		base:  newNodeBase(rt, KindSource),
		value: initial,
	}
	adoptIntoScope(rt, s)
	rt.register(s.base.id, registryEntry{info: s.info})
	return s
}

// WithName sets the signal's diagnostic name. No semantic effect.
func (s *Signal[T]) WithName(name string) *Signal[T] {
	s.base.name = name
	return s
}

// WithEquals configures a custom equality strategy deciding whether a write
// changed the value. See Identity, Shallow, and Deep for stock strategies.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// Get returns the current value and registers the read with the active
// tracking frame, if any. Reading a disposed signal returns the zero value;
// use TryGet when the caller needs to distinguish disposal.
func (s *Signal[T]) Get() T {
	if s.base.disposed.Load() {
		var zero T
		return zero
	}

	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	// Record after releasing the value lock to keep lock ordering flat.
	s.base.rt.ctx().recordRead(&s.base)

	return value
}

// TryGet returns the current value, or a *DisposalError if the signal has
// been disposed. Tracked like Get.
func (s *Signal[T]) TryGet() (T, error) {
	if s.base.disposed.Load() {
		var zero T
		return zero, s.disposalErr("get")
	}
	return s.Get(), nil
}

// Peek returns the current value without registering a dependency.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set writes a new value. If the value compares equal to the current one
// under the signal's equality strategy, the write is a no-op: nothing is
// marked dirty and nothing recomputes. Otherwise all transitive dependents
// are marked dirty and pending effects and eager memos run before Set
// returns.
//
// Returns a *DisposalError if the signal is disposed, or ErrBudgetExceeded
// if the resulting propagation tripped the runtime's update budget.
func (s *Signal[T]) Set(value T) error {
	if s.base.disposed.Load() {
		return s.disposalErr("set")
	}

	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	s.base.rt.emitWrite(WriteEvent{
		NodeID:  s.base.id,
		Name:    s.base.name,
		Changed: changed,
		Time:    time.Now(),
	})

	if !changed {
		return nil
	}
	return s.base.rt.propagateFrom(&s.base)
}

// Update atomically transforms the value with fn. The equality strategy
// applies to the result exactly as in Set.
func (s *Signal[T]) Update(fn func(T) T) error {
	if s.base.disposed.Load() {
		return s.disposalErr("update")
	}

	s.mu.Lock()
	oldValue := s.value
	newValue := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	s.base.rt.emitWrite(WriteEvent{
		NodeID:  s.base.id,
		Name:    s.base.name,
		Changed: changed,
		Time:    time.Now(),
	})

	if !changed {
		return nil
	}
	return s.base.rt.propagateFrom(&s.base)
}

// Dispose removes the signal from the graph: dependents are severed, the
// value is released, and further writes fail with a *DisposalError.
// Idempotent. Signals registered to a scope are disposed by the scope.
func (s *Signal[T]) Dispose() {
	if s.base.disposed.Swap(true) {
		return
	}
	info := s.info()

	s.base.severSubs()
	s.mu.Lock()
	var zero T
	s.value = zero
	s.mu.Unlock()

	s.base.rt.unregister(s.base.id, info)
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// Name returns the diagnostic name, if one was set.
func (s *Signal[T]) Name() string {
	return s.base.name
}

// IsDisposed reports whether the signal has been disposed.
func (s *Signal[T]) IsDisposed() bool {
	return s.base.disposed.Load()
}

// info snapshots the signal for introspection without touching tracking.
func (s *Signal[T]) info() NodeInfo {
	status := StatusClean
	if s.base.disposed.Load() {
		status = StatusDisposed
	}
	s.mu.RLock()
	value := any(s.value)
	s.mu.RUnlock()
	return NodeInfo{
		ID:       s.base.id,
		Name:     s.base.name,
		Kind:     KindSource,
		KindName: KindSource.String(),
		Status:   status,
		State:    status.String(),
		Value:    value,
		Subs:     s.base.subsCount(),
		CallSite: s.base.callSite,
	}
}

// equals applies the configured equality strategy, defaulting to identity.
func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return identityEquals(a, b)
}

// disposalErr builds the typed error for an operation on a disposed signal.
func (s *Signal[T]) disposalErr(op string) error {
	return &DisposalError{Op: op, NodeID: s.base.id, Name: s.base.name, Kind: KindSource}
}

// adoptIntoScope registers d with the goroutine's active scope, if any.
func adoptIntoScope(rt *Runtime, d disposable) {
	if sc := rt.currentScope(); sc != nil {
		sc.adopt(d)
	}
}
