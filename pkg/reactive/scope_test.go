package reactive

import (
	"testing"
)

func TestScopeDisposesInReverseOrder(t *testing.T) {
	var order []string
	scope := NewScope()

	scope.Run(func() {
		OnCleanup(func() { order = append(order, "first") })
		CreateEffect(func() Cleanup {
			return func() { order = append(order, "effect") }
		})
		OnCleanup(func() { order = append(order, "last") })
	})

	scope.Dispose()

	want := []string{"last", "effect", "first"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestScopeDisposesExactlyOnce(t *testing.T) {
	disposals := 0
	scope := NewScope()
	scope.Run(func() {
		OnCleanup(func() { disposals++ })
	})

	scope.Dispose()
	scope.Dispose()

	if disposals != 1 {
		t.Errorf("expected exactly 1 disposal, got %d", disposals)
	}
	if !scope.IsDisposed() {
		t.Error("expected IsDisposed after Dispose")
	}
}

func TestScopeDisposesOwnedNodes(t *testing.T) {
	var sig *Signal[int]
	var memo *Memo[int]
	runs := 0

	scope := NewScope()
	scope.Run(func() {
		sig = NewSignal(1)
		memo = NewMemo(func() int { return sig.Get() * 2 })
		CreateEffect(func() Cleanup {
			runs++
			_ = memo.Get()
			return nil
		})
	})

	scope.Dispose()

	if !sig.IsDisposed() {
		t.Error("signal should be disposed with its scope")
	}
	if !memo.IsDisposed() {
		t.Error("memo should be disposed with its scope")
	}

	// Nothing re-runs after disposal.
	sig.Set(5)
	if runs != 1 {
		t.Errorf("expected no re-runs after scope disposal, got %d", runs)
	}
}

func TestScopeNesting(t *testing.T) {
	var childDisposed, grandDisposed bool

	parent := NewScope()
	parent.Run(func() {
		child := NewScope()
		if child.Parent() != parent {
			t.Error("scope created during Run should parent to the running scope")
		}
		child.Run(func() {
			OnCleanup(func() { childDisposed = true })
			grand := NewScope()
			grand.Run(func() {
				OnCleanup(func() { grandDisposed = true })
			})
		})
	})

	parent.Dispose()

	if !childDisposed {
		t.Error("child scope should dispose with parent")
	}
	if !grandDisposed {
		t.Error("grandchild scope should dispose with parent")
	}
}

func TestScopeChildDisposedEarlyIsNotDisposedTwice(t *testing.T) {
	disposals := 0

	parent := NewScope()
	var child *Scope
	parent.Run(func() {
		child = NewScope()
		child.Run(func() {
			OnCleanup(func() { disposals++ })
		})
	})

	child.Dispose()
	if disposals != 1 {
		t.Fatalf("expected 1 disposal, got %d", disposals)
	}

	parent.Dispose()
	if disposals != 1 {
		t.Errorf("early-disposed child must not dispose again with parent, got %d", disposals)
	}
}

func TestScopeRunRestoresPreviousScope(t *testing.T) {
	outer := NewScope()
	inner := NewScope()

	var outerSig, innerSig *Signal[int]
	outer.Run(func() {
		inner.Run(func() {
			innerSig = NewSignal(1)
		})
		outerSig = NewSignal(2)
	})

	inner.Dispose()
	if !innerSig.IsDisposed() {
		t.Error("inner signal belongs to inner scope")
	}
	if outerSig.IsDisposed() {
		t.Error("outer signal must survive inner disposal")
	}

	outer.Dispose()
	if !outerSig.IsDisposed() {
		t.Error("outer signal belongs to outer scope")
	}
}

func TestScopeDisposerPanicDoesNotStopDisposal(t *testing.T) {
	var ran []string
	scope := NewScope()
	scope.Run(func() {
		OnCleanup(func() { ran = append(ran, "a") })
		OnCleanup(func() { panic("disposer exploded") })
		OnCleanup(func() { ran = append(ran, "c") })
	})

	scope.Dispose()

	if len(ran) != 2 || ran[0] != "c" || ran[1] != "a" {
		t.Errorf("surviving disposers should still run in order, got %v", ran)
	}
	if !scope.IsDisposed() {
		t.Error("scope should finish disposing despite the panic")
	}
}

func TestScopeDisposeFromWithinDisposer(t *testing.T) {
	disposals := 0
	scope := NewScope()
	scope.Run(func() {
		OnCleanup(func() {
			disposals++
			scope.Dispose()
		})
	})

	scope.Dispose()

	if disposals != 1 {
		t.Errorf("re-entrant dispose must be a no-op, got %d disposals", disposals)
	}
}

func TestOnCleanupAfterDisposeRunsImmediately(t *testing.T) {
	scope := NewScope()
	scope.Dispose()

	ran := false
	scope.OnCleanup(func() { ran = true })
	if !ran {
		t.Error("disposer registered on a disposed scope should run immediately")
	}
}

func TestOnCleanupWithoutScopeIsDropped(t *testing.T) {
	ran := false
	OnCleanup(func() { ran = true })
	if ran {
		t.Error("disposer with no active scope must not run")
	}
}

func TestEffectSeveredBeforeCleanupRuns(t *testing.T) {
	sig := NewSignal(0)
	runs := 0

	scope := NewScope()
	scope.Run(func() {
		CreateEffect(func() Cleanup {
			runs++
			_ = sig.Get()
			return func() {
				// Writing a dependency from the disposer must not revive
				// the effect being torn down.
				sig.Set(99)
			}
		})
	})

	scope.Dispose()

	if runs != 1 {
		t.Errorf("severed effect must not re-run from its own disposer write, got %d runs", runs)
	}
	if got := sig.Peek(); got != 99 {
		t.Errorf("the write itself should still land, got %d", got)
	}
}

func TestScopeNames(t *testing.T) {
	scope := NewScope().WithName("request")
	defer scope.Dispose()

	if scope.Name() != "request" {
		t.Errorf("expected name %q, got %q", "request", scope.Name())
	}
	if scope.ID() == 0 {
		t.Error("expected non-zero ID")
	}
}
