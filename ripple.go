// Package ripple provides the public API for the Ripple reactive state
// runtime.
//
// This is the recommended import for most applications:
//
//	import "github.com/ripple-go/ripple"
//
// Usage:
//
//	count := ripple.NewSignal(0)
//	doubled := ripple.NewMemo(func() int { return count.Get() * 2 })
//	ripple.CreateEffect(func() ripple.Cleanup {
//	    fmt.Println("doubled is now", doubled.Get())
//	    return nil
//	})
//	count.Set(21) // prints "doubled is now 42" before Set returns
package ripple

import (
	"context"
	"time"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// =============================================================================
// Reactive primitives (re-export from pkg/reactive)
// =============================================================================

// NewSignal creates a new reactive signal with the given initial value.
//
// Example:
//
//	count := ripple.NewSignal(0)
//	count.Set(1)
//	value := count.Get() // 1
func NewSignal[T any](initial T) *Signal[T] {
	return reactive.NewSignal(initial)
}

// NewMemo creates a computed value that automatically tracks dependencies.
// Memos are lazy: the computation runs on first read and again on the next
// read after a dependency changed, not on every upstream write.
//
// Example:
//
//	doubled := ripple.NewMemo(func() int {
//	    return count.Get() * 2
//	})
func NewMemo[T any](compute func() T) *Memo[T] {
	return reactive.NewMemo(compute)
}

// NewMemoE creates a computed value whose computation may fail.
// While the computation is in an error state, Get yields the zero value and
// TryGet returns the stored error, until a later recomputation succeeds.
func NewMemoE[T any](compute func() (T, error)) *Memo[T] {
	return reactive.NewMemoE(compute)
}

// CreateEffect registers a side effect that reruns when dependencies change.
// The returned cleanup, if any, runs before the next rerun and on disposal.
//
// Example:
//
//	ripple.CreateEffect(func() ripple.Cleanup {
//	    fmt.Println("Count changed to:", count.Get())
//	    return nil
//	})
var CreateEffect = reactive.CreateEffect

// WithEffectName names an effect for log and event attribution.
var WithEffectName = reactive.WithEffectName

// Batch groups multiple signal writes into a single propagation pass.
// Effects observing several written signals run once at the flush.
var Batch = reactive.Batch

// BatchNamed is a named batch for observability.
var BatchNamed = reactive.BatchNamed

// Untracked runs fn without creating subscriptions.
var Untracked = reactive.Untracked

// Core type aliases
type Signal[T any] = reactive.Signal[T]
type Memo[T any] = reactive.Memo[T]
type Effect = reactive.Effect
type Cleanup = reactive.Cleanup
type EffectOption = reactive.EffectOption

// Readable is any reactive value readable with dependency tracking.
// Signals, memos, and tasks all satisfy it; operators accept it so they
// compose over any source.
type Readable[T any] = reactive.Readable[T]

// =============================================================================
// Operators (re-export from pkg/reactive)
// =============================================================================

// Map derives a memo by applying fn to every value of src.
func Map[T, U any](src Readable[T], fn func(T) U) *Memo[U] {
	return reactive.Map(src, fn)
}

// Filter derives a memo holding the most recent value of src that satisfied
// pred. Values that fail the predicate do not propagate downstream.
func Filter[T any](src Readable[T], pred func(T) bool) *Memo[T] {
	return reactive.Filter(src, pred)
}

// Scan folds each change of src into an accumulator, starting from seed.
// The value src holds when Scan is called is not folded.
//
// Example:
//
//	total := ripple.Scan(amount, 0, func(sum, v int) int { return sum + v })
func Scan[T, A any](src Readable[T], seed A, fn func(A, T) A) *Memo[A] {
	return reactive.Scan(src, seed, fn)
}

// Subscribe runs fn with src's new value on every change after the current
// one. Dispose the returned effect to unsubscribe.
func Subscribe[T any](src Readable[T], fn func(T)) *Effect {
	return reactive.Subscribe(src, fn)
}

// =============================================================================
// Focus (two-way views into signals)
// =============================================================================

// Focus creates a read-write view of one part of src selected by the lens.
// Reading the view tracks src; writing the view writes the whole value back
// through the lens setter. Focused views are always scoped: call Focus
// inside Scope.Run so the view is disposed with its parent.
//
// Example:
//
//	name := ripple.Focus(user, ripple.Lens[User, string]{
//	    Get: func(u User) string { return u.Name },
//	    Set: func(u User, v string) User { u.Name = v; return u },
//	})
func Focus[T, F any](src *Signal[T], lens Lens[T, F]) *Focused[T, F] {
	return reactive.Focus(src, lens)
}

// FocusKey focuses one key of a map signal.
func FocusKey[K comparable, V any](src *Signal[map[K]V], key K) *Focused[map[K]V, V] {
	return reactive.FocusKey(src, key)
}

// FocusIndex focuses one index of a slice signal.
func FocusIndex[E any](src *Signal[[]E], i int) *Focused[[]E, E] {
	return reactive.FocusIndex(src, i)
}

// Lens pairs a getter and setter for Focus.
type Lens[T, F any] = reactive.Lens[T, F]

// Focused is the read-write view produced by Focus.
type Focused[T, F any] = reactive.Focused[T, F]

// =============================================================================
// Tasks (async values, stale-while-revalidate)
// =============================================================================

// NewTask creates an async value refreshed on demand. Reads serve the last
// settled value while a refresh runs in the background; a superseded fetch
// never overwrites a newer result.
func NewTask[T any](fetch func(context.Context) (T, error), opts ...TaskOption[T]) *Task[T] {
	return reactive.NewTask(fetch, opts...)
}

// WatchTask creates a task whose key function runs dependency-tracked.
// Any change to a dependency of key triggers a refresh with the new key.
//
// Example:
//
//	user := ripple.WatchTask(
//	    func() int { return userID.Get() },
//	    func(ctx context.Context, id int) (User, error) {
//	        return loadUser(ctx, id)
//	    },
//	)
func WatchTask[K comparable, T any](key func() K, fetch func(context.Context, K) (T, error), opts ...TaskOption[T]) *Task[T] {
	return reactive.WatchTask(key, fetch, opts...)
}

// WithTaskName names the task for log and event attribution.
func WithTaskName[T any](name string) TaskOption[T] {
	return reactive.WithTaskName[T](name)
}

// WithInitial sets the value served before the first fetch settles.
func WithInitial[T any](value T) TaskOption[T] {
	return reactive.WithInitial(value)
}

// WithStaleTime treats settled values as fresh for d: a refresh inside the
// window serves the cached value without fetching.
func WithStaleTime[T any](d time.Duration) TaskOption[T] {
	return reactive.WithStaleTime[T](d)
}

// WithRetry retries a failed fetch up to count times with delay between
// attempts, within the same generation.
func WithRetry[T any](count int, delay time.Duration) TaskOption[T] {
	return reactive.WithRetry[T](count, delay)
}

// WithPolicy sets how a refresh that arrives mid-fetch is handled.
func WithPolicy[T any](p ConcurrencyPolicy) TaskOption[T] {
	return reactive.WithPolicy[T](p)
}

// WithLazyStart defers the first fetch until the task is first read.
func WithLazyStart[T any]() TaskOption[T] {
	return reactive.WithLazyStart[T]()
}

// WithTaskContext parents all fetch contexts to ctx; cancelling it stops
// in-flight fetches.
func WithTaskContext[T any](ctx context.Context) TaskOption[T] {
	return reactive.WithTaskContext[T](ctx)
}

// Task type aliases
type Task[T any] = reactive.Task[T]
type TaskSnapshot[T any] = reactive.TaskSnapshot[T]
type TaskOption[T any] = reactive.TaskOption[T]

// ConcurrencyPolicy selects the behavior when a refresh arrives while a
// fetch is still in flight.
type ConcurrencyPolicy = reactive.ConcurrencyPolicy

// ConcurrencyPolicy constants
const (
	// PolicyCancelLatest cancels the in-flight fetch and starts the new one.
	PolicyCancelLatest = reactive.PolicyCancelLatest

	// PolicyDropWhileRunning ignores refreshes while a fetch is in flight.
	PolicyDropWhileRunning = reactive.PolicyDropWhileRunning

	// PolicyQueue coalesces refreshes into exactly one follow-up fetch.
	PolicyQueue = reactive.PolicyQueue
)

// =============================================================================
// Scopes (ownership and disposal)
// =============================================================================

// NewScope creates a disposal scope. Nodes created inside its Run are
// disposed with the scope, children before parents.
var NewScope = reactive.NewScope

// OnCleanup registers fn to run when the enclosing scope is disposed.
var OnCleanup = reactive.OnCleanup

// Scope is an ownership boundary controlling node lifetime.
type Scope = reactive.Scope

// =============================================================================
// Equality strategies
// =============================================================================

// Identity returns the identity equality strategy for T: comparable values
// by ==, slices and maps by reference. This is the default for every node.
func Identity[T any]() func(a, b T) bool {
	return reactive.Identity[T]()
}

// Shallow returns a one-level structural comparison for T.
func Shallow[T any]() func(a, b T) bool {
	return reactive.Shallow[T]()
}

// Deep returns full structural comparison via reflect.DeepEqual.
func Deep[T any]() func(a, b T) bool {
	return reactive.Deep[T]()
}

// =============================================================================
// Runtime (isolated instances)
// =============================================================================

// NewRuntime creates an isolated runtime instance. Nodes created inside its
// Run belong to it and never interact with nodes of another runtime.
// See New for the Config-driven form.
var NewRuntime = reactive.NewRuntime

// Default returns the package-level default runtime backing the top-level
// constructors.
var Default = reactive.Default

// Runtime options
var (
	// WithLogger sets the runtime's structured logger.
	WithLogger = reactive.WithLogger

	// WithRuntimeName names the runtime for log and event attribution.
	WithRuntimeName = reactive.WithRuntimeName

	// WithBudget installs an update budget on the runtime.
	WithBudget = reactive.WithBudget
)

// Runtime type aliases
type Runtime = reactive.Runtime
type RuntimeOption = reactive.RuntimeOption

// BudgetConfig holds the limits for a runtime's update budget.
type BudgetConfig = reactive.BudgetConfig

// =============================================================================
// Introspection (observers, node info)
// =============================================================================

// Observer receives runtime lifecycle events. Embed NopObserver and override
// the callbacks you need.
type Observer = reactive.Observer

// NopObserver is an Observer whose callbacks all do nothing.
type NopObserver = reactive.NopObserver

// Node snapshot types
type NodeInfo = reactive.NodeInfo
type Edge = reactive.Edge
type NodeKind = reactive.NodeKind
type NodeStatus = reactive.NodeStatus

// Event types
type WriteEvent = reactive.WriteEvent
type RecomputeEvent = reactive.RecomputeEvent
type PropagationEvent = reactive.PropagationEvent
type TaskFetchEvent = reactive.TaskFetchEvent
type TaskFetchOutcome = reactive.TaskFetchOutcome
type BudgetEvent = reactive.BudgetEvent

// NodeKind constants
const (
	KindSource  = reactive.KindSource
	KindDerived = reactive.KindDerived
	KindTask    = reactive.KindTask
	KindEffect  = reactive.KindEffect
	KindScope   = reactive.KindScope
)

// NodeStatus constants
const (
	StatusClean     = reactive.StatusClean
	StatusDirty     = reactive.StatusDirty
	StatusComputing = reactive.StatusComputing
	StatusDisposed  = reactive.StatusDisposed
)

// TaskFetchOutcome constants
const (
	FetchApplied    = reactive.FetchApplied
	FetchSuperseded = reactive.FetchSuperseded
	FetchDiscarded  = reactive.FetchDiscarded
)

// =============================================================================
// Errors (re-export from pkg/reactive)
// =============================================================================

var ErrBudgetExceeded = reactive.ErrBudgetExceeded
var ErrDisposed = reactive.ErrDisposed
var ErrCycle = reactive.ErrCycle

type DisposalError = reactive.DisposalError
type ComputeError = reactive.ComputeError
type CycleError = reactive.CycleError

// =============================================================================
// Configuration (re-export from pkg/reactive)
// =============================================================================

// DevMode enables development-time validation and call-site capture.
var DevMode = &reactive.DevMode

// Debug holds the development-time logging toggles.
var Debug = &reactive.Debug

// DebugConfig controls debug logging for development.
type DebugConfig = reactive.DebugConfig
