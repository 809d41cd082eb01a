package reactive

import (
	"sync"
	"sync/atomic"
)

// disposable is anything a scope can own: signals, memos, effects, tasks,
// child scopes, and registered disposer functions.
type disposable interface {
	Dispose()
}

// disposerFunc adapts a plain function to the disposable interface.
type disposerFunc func()

func (f disposerFunc) Dispose() { f() }

// Scope is a node in the ownership tree. Nodes constructed while a scope is
// active are registered into it and disposed with it, so a consumer that
// mounts a unit of reactive state (a component, a session, a test case) can
// tear the whole unit down with one call.
//
// Scopes form a strict tree: each scope has at most one parent and is
// disposed at most once. Disposal walks the children in reverse registration
// order, so later-registered resources, which may depend on earlier ones,
// release first.
type Scope struct {
	id   uint64
	name string
	rt   *Runtime

	parent *Scope

	// items are everything this scope owns, in registration order. Child
	// scopes, nodes, and disposer functions interleave in one sequence so
	// reverse-order disposal respects creation order across kinds.
	items   []disposable
	itemsMu sync.Mutex

	disposed atomic.Bool
}

// NewScope creates a scope in the goroutine's active runtime, parented to
// the currently active scope if there is one.
func NewScope() *Scope {
	rt := currentRuntime()
	return newScope(rt, rt.currentScope())
}

// NewChild creates a child scope under s, regardless of which scope is
// currently active.
func (s *Scope) NewChild() *Scope {
	return newScope(s.rt, s)
}

func newScope(rt *Runtime, parent *Scope) *Scope {
	s := &Scope{
		id:     nextID(),
		rt:     rt,
		parent: parent,
	}
	if parent != nil {
		parent.adopt(s)
	}
	rt.register(s.id, registryEntry{info: s.info})
	return s
}

// WithName sets the scope's diagnostic name. No semantic effect.
func (s *Scope) WithName(name string) *Scope {
	s.name = name
	return s
}

// Run executes fn with this scope active: nodes created inside fn are
// registered into s. The previously active scope is restored afterwards,
// so Run nests.
func (s *Scope) Run(fn func()) {
	restore := s.rt.activate()
	defer restore()

	old := s.rt.setCurrentScope(s)
	defer s.rt.setCurrentScope(old)

	fn()
}

// OnCleanup registers a disposer function to run when the scope is disposed.
// If the scope is already disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed.Load() {
		fn()
		return
	}
	s.adopt(disposerFunc(fn))
}

// OnCleanup registers a disposer with the goroutine's active scope. Without
// an active scope there is nothing to attach the disposer to; it is dropped
// with a debug log rather than leaking a never-called callback silently.
func OnCleanup(fn func()) {
	rt := currentRuntime()
	if sc := rt.currentScope(); sc != nil {
		sc.OnCleanup(fn)
		return
	}
	rt.log().Debug("OnCleanup called with no active scope; disposer dropped")
}

// adopt registers an owned item. Items adopted after disposal are disposed
// immediately so nothing leaks through the gap.
func (s *Scope) adopt(d disposable) {
	if s.disposed.Load() {
		d.Dispose()
		return
	}
	s.itemsMu.Lock()
	s.items = append(s.items, d)
	s.itemsMu.Unlock()
}

// removeItem drops a direct child from the ownership list without disposing
// it. Used when a child scope is disposed directly.
func (s *Scope) removeItem(d disposable) {
	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()
	for i, item := range s.items {
		if item == d {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Dispose tears down everything the scope owns, in reverse registration
// order, then the scope itself. Idempotent: a second call, including one
// triggered from within a disposer, is a no-op. A panicking disposer is
// logged and does not stop the remaining teardown.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}
	info := s.info()

	if s.parent != nil {
		s.parent.removeItem(s)
	}

	s.itemsMu.Lock()
	items := s.items
	s.items = nil
	s.itemsMu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		s.disposeItem(items[i])
	}

	s.rt.unregister(s.id, info)
}

// disposeItem disposes one owned item, containing panics so the remainder
// of the teardown proceeds.
func (s *Scope) disposeItem(d disposable) {
	defer func() {
		if r := recover(); r != nil {
			s.rt.log().Error("scope disposer panicked",
				"scope", s.name,
				"scopeID", s.id,
				"err", recoveredError(r),
			)
		}
	}()
	d.Dispose()
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Name returns the diagnostic name, if one was set.
func (s *Scope) Name() string {
	return s.name
}

// Parent returns the owning scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsDisposed reports whether the scope has been disposed.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// info snapshots the scope for introspection. Subs counts owned items.
func (s *Scope) info() NodeInfo {
	status := StatusClean
	if s.disposed.Load() {
		status = StatusDisposed
	}
	s.itemsMu.Lock()
	owned := len(s.items)
	s.itemsMu.Unlock()
	return NodeInfo{
		ID:       s.id,
		Name:     s.name,
		Kind:     KindScope,
		KindName: KindScope.String(),
		Status:   status,
		State:    status.String(),
		Subs:     owned,
	}
}
