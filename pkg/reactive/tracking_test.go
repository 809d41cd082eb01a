package reactive

import (
	"sync"
	"testing"
)

func TestTrackingDedupesRepeatedReads(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	eff := CreateEffect(func() Cleanup {
		runs++
		_ = count.Get()
		_ = count.Get()
		_ = count.Get()
		return nil
	})
	defer eff.Dispose()

	count.Set(1)
	if runs != 2 {
		t.Errorf("repeated reads subscribe once, expected 2 runs, got %d", runs)
	}
}

func TestTrackingIsGoroutineLocal(t *testing.T) {
	outside := NewSignal(0)
	runs := 0

	var wg sync.WaitGroup
	eff := CreateEffect(func() Cleanup {
		runs++
		wg.Add(1)
		go func() {
			defer wg.Done()
			// A read on another goroutine does not land in this
			// effect's dependency set.
			_ = outside.Get()
		}()
		return nil
	})
	defer eff.Dispose()
	wg.Wait()

	outside.Set(1)
	if runs != 1 {
		t.Errorf("cross-goroutine read must not subscribe, got %d runs", runs)
	}
}

func TestUntrackedNests(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)
	runs := 0

	eff := CreateEffect(func() Cleanup {
		runs++
		_ = a.Get()
		Untracked(func() {
			_ = b.Get()
			Untracked(func() {
				_ = b.Get()
			})
		})
		return nil
	})
	defer eff.Dispose()

	b.Set(1)
	if runs != 1 {
		t.Errorf("nested untracked reads must not subscribe, got %d runs", runs)
	}
	a.Set(1)
	if runs != 2 {
		t.Errorf("tracked read should still subscribe, got %d runs", runs)
	}
}

func TestNestedMemoTrackingAttributesReadsCorrectly(t *testing.T) {
	base := NewSignal(1)
	innerRuns := 0
	outerRuns := 0

	inner := NewMemo(func() int {
		innerRuns++
		return base.Get() * 2
	})
	outer := NewMemo(func() int {
		outerRuns++
		return inner.Get() + 1
	})

	if got := outer.Get(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}

	// base belongs to inner's dependency set, not outer's: after a write,
	// outer recomputes because inner changed, not because it read base.
	base.Set(2)
	if got := outer.Get(); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if innerRuns != 2 || outerRuns != 2 {
		t.Errorf("expected 2 runs each, got inner=%d outer=%d", innerRuns, outerRuns)
	}
}
