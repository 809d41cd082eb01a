// Package reactive implements the Ripple reactive graph: fine-grained
// signals with automatic dependency tracking, where reading a value inside
// a derived computation or effect subscribes that computation to the
// value's changes.
//
// # Core Types
//
// Signal[T] is a writable reactive value:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes the current listener)
//	count.Set(5)          // Write (propagates to dependents)
//	count.Update(func(n int) int { return n + 1 })
//
// Memo[T] is a cached derived value, recomputed lazily when a dependency
// changed since the last read:
//
//	doubled := NewMemo(func() int { return count.Get() * 2 })
//	value := doubled.Get()
//
// Effect runs a side effect whenever a dependency changes:
//
//	CreateEffect(func() Cleanup {
//	    fmt.Println("count is", count.Get())
//	    return nil
//	})
//
// Task[T] bridges an asynchronous fetch into the graph with
// stale-while-revalidate reads: the last resolved value stays visible while
// a new fetch is in flight, and out-of-date fetches are discarded by
// generation.
//
// # Scopes
//
// Scopes own nodes. Nodes created inside Scope.Run are disposed, in reverse
// creation order, when the scope is disposed:
//
//	scope := NewScope()
//	scope.Run(func() {
//	    row := NewSignal(r)
//	    Subscribe(row, render)
//	})
//	scope.Dispose()  // unsubscribes and disposes everything above
//
// # Batching
//
// Batch groups writes into one propagation pass; each dependent recomputes
// at most once for the group:
//
//	Batch(func() {
//	    first.Set("Grace")
//	    last.Set("Hopper")
//	})
//
// # Operators
//
// Map, Filter, Scan, and Focus build derived nodes from existing ones.
// Focus is two-way: writes go back through the parent signal.
//
// # Runtimes
//
// All of the above runs against a Runtime. The package-level functions use
// the default runtime; independent graphs (one per test, one per tenant)
// come from NewRuntime, which also carries the observer list and update
// budgets. Tracking context is per goroutine: spawning a goroutine leaves
// tracking behind, and reads there are untracked unless re-entered through
// Runtime.Run.
package reactive
