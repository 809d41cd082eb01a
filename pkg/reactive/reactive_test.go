package reactive

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testListener stands in for an external consumer (a render binding) that
// subscribes by reading inside a tracked frame.
type testListener struct {
	id    uint64
	dirty atomic.Int64
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty()      { l.dirty.Add(1) }
func (l *testListener) ID() uint64      { return l.id }
func (l *testListener) dirtyCount() int { return int(l.dirty.Load()) }

// withListener runs fn with l installed as the tracking listener on the
// default runtime and subscribes l to everything fn read.
func withListener(l Listener, fn func()) {
	rt := Default()
	restore := rt.activate()
	defer restore()
	frame := rt.pushFrame(l)
	fn()
	rt.popFrame()
	commitSources(l, nil, frame.reads)
}

// recordingObserver captures runtime events for assertions.
type recordingObserver struct {
	NopObserver

	mu       sync.Mutex
	created  []NodeInfo
	disposed []NodeInfo
	writes   []WriteEvent
	computes []RecomputeEvent
	passes   []PropagationEvent
	fetches  []TaskFetchEvent
	budgets  []BudgetEvent
}

func (o *recordingObserver) NodeCreated(info NodeInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created = append(o.created, info)
}

func (o *recordingObserver) NodeDisposed(info NodeInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disposed = append(o.disposed, info)
}

func (o *recordingObserver) WriteApplied(ev WriteEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes = append(o.writes, ev)
}

func (o *recordingObserver) Recomputed(ev RecomputeEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.computes = append(o.computes, ev)
}

func (o *recordingObserver) PropagationEnded(ev PropagationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.passes = append(o.passes, ev)
}

func (o *recordingObserver) TaskFetchSettled(ev TaskFetchEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fetches = append(o.fetches, ev)
}

func (o *recordingObserver) BudgetExceeded(ev BudgetEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.budgets = append(o.budgets, ev)
}

func (o *recordingObserver) settledOutcomes() []TaskFetchOutcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]TaskFetchOutcome, len(o.fetches))
	for i, ev := range o.fetches {
		out[i] = ev.Outcome
	}
	return out
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// The canonical counter scenario: a derived value follows its source, an
// equal write changes nothing and recomputes nothing.
func TestDerivedFollowsSourceAndEqualWriteIsNoOp(t *testing.T) {
	computations := 0
	count := NewSignal(0)
	doubled := NewMemo(func() int {
		computations++
		return count.Get() * 2
	})

	count.Set(5)
	if got := doubled.Get(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if computations != 1 {
		t.Errorf("expected 1 computation, got %d", computations)
	}

	// Writing the same value again must not dirty the memo.
	count.Set(5)
	if got := doubled.Get(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if computations != 1 {
		t.Errorf("equal write must not recompute, got %d computations", computations)
	}
}

// A node reachable through two paths recomputes once per write.
func TestDiamondRecomputesOnce(t *testing.T) {
	var left, right, bottom atomic.Int64

	top := NewSignal(1)
	l := NewMemo(func() int {
		left.Add(1)
		return top.Get() + 1
	})
	r := NewMemo(func() int {
		right.Add(1)
		return top.Get() * 10
	})
	sum := NewMemo(func() int {
		bottom.Add(1)
		return l.Get() + r.Get()
	})

	eff := CreateEffect(func() Cleanup {
		_ = sum.Get()
		return nil
	})
	defer eff.Dispose()

	if left.Load() != 1 || right.Load() != 1 || bottom.Load() != 1 {
		t.Fatalf("expected 1 computation each after initial run, got l=%d r=%d b=%d",
			left.Load(), right.Load(), bottom.Load())
	}

	top.Set(2)

	if bottom.Load() != 2 {
		t.Errorf("bottom should recompute once per write, got %d total runs", bottom.Load())
	}
	if left.Load() != 2 || right.Load() != 2 {
		t.Errorf("sides should recompute once per write, got l=%d r=%d", left.Load(), right.Load())
	}
	if got := sum.Get(); got != 23 {
		t.Errorf("expected 23, got %d", got)
	}
}

// After any write, a lazily read memo equals what a fresh run of its
// compute function would produce.
func TestLazyReadMatchesFreshCompute(t *testing.T) {
	a := NewSignal(3)
	b := NewSignal(4)
	hyp := NewMemo(func() int {
		return a.Get()*a.Get() + b.Get()*b.Get()
	})

	if got := hyp.Get(); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}

	a.Set(6)
	b.Set(8)

	// No reads happened between the writes; one read now must see both.
	if got := hyp.Get(); got != 100 {
		t.Errorf("expected 100 after both writes, got %d", got)
	}
}

// Writes are sequential: by the time Set returns, every eager dependent
// has observed the new value.
func TestWriteCompletesPropagationBeforeReturning(t *testing.T) {
	count := NewSignal(0)
	var seen int

	eff := CreateEffect(func() Cleanup {
		seen = count.Get()
		return nil
	})
	defer eff.Dispose()

	count.Set(41)
	if seen != 41 {
		t.Errorf("effect should have observed 41 before Set returned, saw %d", seen)
	}
}
