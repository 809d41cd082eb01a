package reactive

import (
	"context"
	"sync"
	"time"
)

// ConcurrencyPolicy defines how a task handles a refresh while a fetch is
// already in flight.
type ConcurrencyPolicy int

const (
	// PolicyCancelLatest cancels the prior in-flight fetch's context when a
	// new refresh starts. This is the default policy.
	PolicyCancelLatest ConcurrencyPolicy = iota

	// PolicyDropWhileRunning ignores refreshes while a fetch is in flight.
	PolicyDropWhileRunning

	// PolicyQueue coalesces refreshes that arrive while a fetch is in
	// flight into one follow-up fetch after the current one settles.
	PolicyQueue
)

// Task bridges an asynchronous computation into the graph. Reading a task
// never blocks: it returns the last resolved value synchronously while a new
// fetch runs in the background, alongside the in-flight and error state
// (stale-while-revalidate).
//
// Every fetch start increments the task's generation. A fetch whose
// generation no longer matches when it settles is discarded, so starting a
// new fetch implicitly cancels acceptance of all prior results: out of two
// rapid refreshes only the later one's value is ever observable.
//
// Value, Err, and Pending are backed by signals, so effects and memos that
// read them re-run as the task moves through its lifecycle.
type Task[T any] struct {
	base nodeBase

	// fetch is the underlying asynchronous computation.
	fetch func(context.Context) (T, error)

	valueSig   *Signal[T]
	errSig     *Signal[error]
	pendingSig *Signal[bool]

	// mu guards the fetch bookkeeping below and spans every
	// generation-check-then-write-back, so no two write-backs overlap.
	// Signal writes under mu happen inside a batch: values land immediately
	// but propagation is deferred until after mu is released.
	mu            sync.Mutex
	generation    uint64
	inFlight      bool
	queuedRefresh bool
	ready         bool
	lastFetch     time.Time
	cancel        context.CancelFunc

	// Options.
	initial    T
	staleTime  time.Duration
	retryCount int
	retryDelay time.Duration
	policy     ConcurrencyPolicy
	lazyStart  bool
	baseCtx    context.Context
}

// TaskSnapshot is one consistent view of a task's externally visible state.
type TaskSnapshot[T any] struct {
	Value      T
	Err        error
	Pending    bool
	Generation uint64
}

// TaskOption configures a Task at creation.
type TaskOption[T any] interface {
	isTaskOption()
	applyTask(t *Task[T])
}

type taskOptionFunc[T any] func(*Task[T])

func (f taskOptionFunc[T]) isTaskOption()        {}
func (f taskOptionFunc[T]) applyTask(t *Task[T]) { f(t) }

// WithTaskName sets the task's diagnostic name. The backing signals are
// named after it with .value, .err, and .pending suffixes.
func WithTaskName[T any](name string) TaskOption[T] {
	return taskOptionFunc[T](func(t *Task[T]) {
		t.base.name = name
	})
}

// WithInitial sets the value served before the first fetch resolves.
func WithInitial[T any](value T) TaskOption[T] {
	return taskOptionFunc[T](func(t *Task[T]) {
		t.initial = value
	})
}

// WithStaleTime suppresses Fetch for the given duration after a successful
// fetch. Refresh bypasses it.
func WithStaleTime[T any](d time.Duration) TaskOption[T] {
	return taskOptionFunc[T](func(t *Task[T]) {
		t.staleTime = d
	})
}

// WithRetry retries a failing fetch count additional times, waiting delay
// between attempts. Retries stop early when the fetch is superseded.
func WithRetry[T any](count int, delay time.Duration) TaskOption[T] {
	return taskOptionFunc[T](func(t *Task[T]) {
		t.retryCount = count
		t.retryDelay = delay
	})
}

// WithPolicy sets the concurrency policy for overlapping refreshes.
func WithPolicy[T any](p ConcurrencyPolicy) TaskOption[T] {
	return taskOptionFunc[T](func(t *Task[T]) {
		t.policy = p
	})
}

// WithLazyStart defers the first fetch until Fetch or Refresh is called,
// instead of fetching at creation.
func WithLazyStart[T any]() TaskOption[T] {
	return taskOptionFunc[T](func(t *Task[T]) {
		t.lazyStart = true
	})
}

// WithTaskContext sets the parent context for fetches. Cancelling it ends
// in-flight fetches at the next point the fetch function observes it.
// Defaults to context.Background.
func WithTaskContext[T any](ctx context.Context) TaskOption[T] {
	return taskOptionFunc[T](func(t *Task[T]) {
		t.baseCtx = ctx
	})
}

// NewTask creates a task in the goroutine's active runtime and, unless
// WithLazyStart is given, starts the first fetch immediately.
//
// Example:
//
//	users := reactive.NewTask(func(ctx context.Context) ([]User, error) {
//	    return store.ListUsers(ctx)
//	}, reactive.WithTaskName[[]User]("users"))
func NewTask[T any](fetch func(context.Context) (T, error), opts ...TaskOption[T]) *Task[T] {
	rt := currentRuntime()
	t := &Task[T]{
		base:    newNodeBase(rt, KindTask),
		fetch:   fetch,
		policy:  PolicyCancelLatest,
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt.applyTask(t)
	}

	// The backing signals are owned by the task, not the active scope; the
	// task disposes them itself.
	restore := rt.activate()
	oldScope := rt.setCurrentScope(nil)
	t.valueSig = NewSignal(t.initial).WithName(derivedName(t.base.name, "value"))
	t.errSig = NewSignal[error](nil).WithName(derivedName(t.base.name, "err"))
	t.pendingSig = NewSignal(false).WithName(derivedName(t.base.name, "pending"))
	rt.setCurrentScope(oldScope)
	restore()

	adoptIntoScope(rt, t)
	rt.register(t.base.id, registryEntry{info: t.info})

	if !t.lazyStart {
		if err := t.Refresh(); err != nil {
			rt.log().Warn("initial task fetch did not start",
				"name", t.base.name,
				"id", t.base.id,
				"err", err,
			)
		}
	}
	return t
}

// WatchTask creates a task that refreshes whenever key changes. The key
// function is tracked reactively; the fetch receives the key's value at
// fetch time.
func WatchTask[K comparable, T any](key func() K, fetch func(context.Context, K) (T, error), opts ...TaskOption[T]) *Task[T] {
	opts = append(opts, WithLazyStart[T]())
	t := NewTask(func(ctx context.Context) (T, error) {
		return fetch(ctx, key())
	}, opts...)

	// The first effect run starts the initial fetch; later runs refresh on
	// key changes.
	CreateEffect(func() Cleanup {
		key()
		if err := t.Refresh(); err != nil {
			t.base.rt.log().Warn("task refresh did not start",
				"name", t.base.name,
				"id", t.base.id,
				"err", err,
			)
		}
		return nil
	}, WithEffectName(derivedName(t.base.name, "watch")))

	return t
}

// Value returns the last resolved value, or the initial value before the
// first resolution. Never blocks. Tracked like a signal read.
func (t *Task[T]) Value() T {
	return t.valueSig.Get()
}

// Peek returns the last resolved value without registering a dependency.
func (t *Task[T]) Peek() T {
	return t.valueSig.Peek()
}

// Err returns the error of the last failed fetch, or nil. A later
// successful fetch clears it. Tracked.
func (t *Task[T]) Err() error {
	return t.errSig.Get()
}

// Pending reports whether a fetch is in flight. Tracked.
func (t *Task[T]) Pending() bool {
	return t.pendingSig.Get()
}

// Generation returns the current fetch generation. Untracked.
func (t *Task[T]) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// Snapshot returns one consistent view of value, error, in-flight state,
// and generation. Tracked for value, error, and pending.
func (t *Task[T]) Snapshot() TaskSnapshot[T] {
	value := t.valueSig.Get()
	err := t.errSig.Get()
	pending := t.pendingSig.Get()
	t.mu.Lock()
	gen := t.generation
	t.mu.Unlock()
	return TaskSnapshot[T]{Value: value, Err: err, Pending: pending, Generation: gen}
}

// Fetch starts a fetch unless the current value is still fresh under
// WithStaleTime. See Refresh for the forced variant.
func (t *Task[T]) Fetch() error {
	return t.startFetch(false)
}

// Refresh starts a new fetch, bypassing staleness suppression. The previous
// value stays visible until the fetch settles. Under PolicyCancelLatest the
// prior in-flight fetch's context is cancelled; either way its result can no
// longer apply, because the generation has moved on.
//
// Returns a *DisposalError on a disposed task, or ErrBudgetExceeded when
// the runtime's fetch budget rejected the start.
func (t *Task[T]) Refresh() error {
	return t.startFetch(true)
}

func (t *Task[T]) startFetch(force bool) error {
	if t.base.disposed.Load() {
		return t.disposalErr("refresh")
	}
	rt := t.base.rt

	t.mu.Lock()
	if !force && t.ready && t.staleTime > 0 && time.Since(t.lastFetch) < t.staleTime {
		t.mu.Unlock()
		return nil
	}
	if t.inFlight {
		switch t.policy {
		case PolicyDropWhileRunning:
			t.mu.Unlock()
			return nil
		case PolicyQueue:
			t.queuedRefresh = true
			t.mu.Unlock()
			return nil
		}
	}
	t.mu.Unlock()

	if err := rt.budget.checkFetch(t.base.id); err != nil {
		t.reportFetchBudget()
		return err
	}

	var (
		gen      uint64
		fetchCtx context.Context
		started  = time.Now()
	)
	err := rt.Batch(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.base.disposed.Load() {
			return
		}
		t.generation++
		gen = t.generation
		t.inFlight = true
		if t.policy == PolicyCancelLatest {
			if t.cancel != nil {
				t.cancel()
			}
			fetchCtx, t.cancel = context.WithCancel(t.baseCtx)
		} else {
			fetchCtx = t.baseCtx
		}
		t.pendingSig.Set(true)
	})
	if gen == 0 {
		return t.disposalErr("refresh")
	}

	rt.emitTaskFetchStarted(TaskFetchEvent{
		NodeID:     t.base.id,
		Name:       t.base.name,
		Generation: gen,
		Start:      started,
	})

	go t.runFetch(fetchCtx, gen, started)
	return err
}

// runFetch executes the fetch with retries, then settles the result.
// Runs on its own goroutine.
func (t *Task[T]) runFetch(ctx context.Context, gen uint64, started time.Time) {
	var (
		result T
		err    error
	)

	attempts := 1 + t.retryCount
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(t.retryDelay):
			case <-ctx.Done():
			}
		}

		if t.superseded(gen) {
			t.emitSettled(gen, started, FetchSuperseded, nil)
			return
		}

		result, err = t.fetch(ctx)
		if err == nil || ctx.Err() != nil {
			break
		}
	}

	t.settle(gen, started, result, err)
}

// settle applies a fetch result. The generation check and the signal writes
// happen under mu inside a batch, so a result that lost the race to a newer
// generation is discarded without touching state, and the write-back
// propagates only after mu is released.
func (t *Task[T]) settle(gen uint64, started time.Time, result T, fetchErr error) {
	rt := t.base.rt
	outcome := FetchApplied
	queued := false

	err := rt.Batch(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.base.disposed.Load() {
			outcome = FetchDiscarded
			return
		}
		if t.generation != gen {
			outcome = FetchSuperseded
			return
		}

		t.inFlight = false
		queued = t.queuedRefresh
		t.queuedRefresh = false

		if fetchErr != nil {
			// The previous value stays at its last resolved state.
			t.ready = false
			t.errSig.Set(&ComputeError{
				NodeID: t.base.id,
				Name:   t.base.name,
				Kind:   KindTask,
				Cause:  fetchErr,
			})
			t.pendingSig.Set(false)
			return
		}

		t.ready = true
		t.lastFetch = time.Now()
		t.valueSig.Set(result)
		t.errSig.Set(nil)
		t.pendingSig.Set(false)
	})
	if err != nil {
		rt.log().Warn("task write-back propagation failed",
			"name", t.base.name,
			"id", t.base.id,
			"err", err,
		)
	}

	t.emitSettled(gen, started, outcome, fetchErr)

	if queued && outcome == FetchApplied {
		if err := t.Refresh(); err != nil {
			rt.log().Warn("queued task refresh did not start",
				"name", t.base.name,
				"id", t.base.id,
				"err", err,
			)
		}
	}
}

// Mutate applies an optimistic local update to the task's value without
// fetching. A later fetch overwrites it.
func (t *Task[T]) Mutate(fn func(T) T) error {
	if t.base.disposed.Load() {
		return t.disposalErr("mutate")
	}
	return t.base.rt.Batch(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.valueSig.Update(fn)
	})
}

// Invalidate marks the current value stale so the next Fetch runs even
// inside the WithStaleTime window. It does not start a fetch itself.
func (t *Task[T]) Invalidate() {
	t.mu.Lock()
	t.ready = false
	t.lastFetch = time.Time{}
	t.mu.Unlock()
}

// Dispose cancels the in-flight fetch's context, severs the backing signals
// from the graph, and discards any write-back that later arrives.
// Idempotent.
func (t *Task[T]) Dispose() {
	if t.base.disposed.Swap(true) {
		return
	}
	info := t.info()

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()

	t.valueSig.Dispose()
	t.errSig.Dispose()
	t.pendingSig.Dispose()

	t.base.rt.unregister(t.base.id, info)
}

// ID returns the unique identifier for this task.
func (t *Task[T]) ID() uint64 {
	return t.base.id
}

// Name returns the diagnostic name, if one was set.
func (t *Task[T]) Name() string {
	return t.base.name
}

// IsDisposed reports whether the task has been disposed.
func (t *Task[T]) IsDisposed() bool {
	return t.base.disposed.Load()
}

// superseded reports whether gen is no longer the task's current generation.
func (t *Task[T]) superseded(gen uint64) bool {
	if t.base.disposed.Load() {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation != gen
}

func (t *Task[T]) emitSettled(gen uint64, started time.Time, outcome TaskFetchOutcome, fetchErr error) {
	t.base.rt.emitTaskFetchSettled(TaskFetchEvent{
		NodeID:     t.base.id,
		Name:       t.base.name,
		Generation: gen,
		Start:      started,
		Duration:   time.Since(started),
		Outcome:    outcome,
		Err:        fetchErr,
	})
}

func (t *Task[T]) reportFetchBudget() {
	rt := t.base.rt
	rt.log().Warn("task fetch budget exceeded",
		"name", t.base.name,
		"id", t.base.id,
	)
	rt.emitBudgetExceeded(BudgetEvent{
		NodeID: t.base.id,
		Name:   t.base.name,
		Kind:   KindTask,
		Max:    rt.budget.maxFetches,
		Window: rt.budget.window,
		Time:   time.Now(),
	})
}

// info snapshots the task for introspection, without touching tracking.
func (t *Task[T]) info() NodeInfo {
	t.mu.Lock()
	inFlight := t.inFlight
	t.mu.Unlock()

	status := StatusClean
	switch {
	case t.base.disposed.Load():
		status = StatusDisposed
	case inFlight:
		status = StatusComputing
	}

	return NodeInfo{
		ID:       t.base.id,
		Name:     t.base.name,
		Kind:     KindTask,
		KindName: KindTask.String(),
		Status:   status,
		State:    status.String(),
		Value:    t.valueSig.Peek(),
		HasError: t.errSig.Peek() != nil,
		Subs:     t.base.subsCount(),
		CallSite: t.base.callSite,
	}
}

// disposalErr builds the typed error for an operation on a disposed task.
func (t *Task[T]) disposalErr(op string) error {
	return &DisposalError{Op: op, NodeID: t.base.id, Name: t.base.name, Kind: KindTask}
}

// derivedName names an internal node after its parent, or leaves it
// anonymous when the parent is.
func derivedName(parent, suffix string) string {
	if parent == "" {
		return ""
	}
	return parent + "." + suffix
}
