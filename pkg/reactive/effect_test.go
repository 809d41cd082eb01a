package reactive

import (
	"testing"
)

func TestEffectRunsOnCreate(t *testing.T) {
	ran := false
	eff := CreateEffect(func() Cleanup {
		ran = true
		return nil
	})
	defer eff.Dispose()

	if !ran {
		t.Error("effect should run immediately on creation")
	}
}

func TestEffectRerunsOnDependencyChange(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	eff := CreateEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})
	defer eff.Dispose()

	if runs != 1 {
		t.Fatalf("expected 1 run, got %d", runs)
	}

	count.Set(1)
	if runs != 2 {
		t.Errorf("expected 2 runs after change, got %d", runs)
	}

	count.Set(1)
	if runs != 2 {
		t.Errorf("equal write must not re-run the effect, got %d runs", runs)
	}
}

func TestEffectCleanupBeforeRerun(t *testing.T) {
	count := NewSignal(0)
	var order []string

	eff := CreateEffect(func() Cleanup {
		n := count.Get()
		order = append(order, "run")
		return func() {
			order = append(order, "cleanup")
			_ = n
		}
	})
	defer eff.Dispose()

	count.Set(1)

	want := []string{"run", "cleanup", "run"}
	if len(order) != len(want) {
		t.Fatalf("expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestEffectCleanupOnDispose(t *testing.T) {
	cleanups := 0
	eff := CreateEffect(func() Cleanup {
		return func() { cleanups++ }
	})

	if cleanups != 0 {
		t.Fatal("cleanup must not run before dispose")
	}

	eff.Dispose()
	if cleanups != 1 {
		t.Errorf("expected 1 cleanup on dispose, got %d", cleanups)
	}

	// Idempotent.
	eff.Dispose()
	if cleanups != 1 {
		t.Errorf("second dispose must not re-run cleanup, got %d", cleanups)
	}
}

func TestEffectDisposeStopsReruns(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	eff := CreateEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	eff.Dispose()
	count.Set(1)

	if runs != 1 {
		t.Errorf("disposed effect must not re-run, got %d runs", runs)
	}
	if !eff.IsDisposed() {
		t.Error("expected IsDisposed after Dispose")
	}
}

func TestEffectDynamicDependencies(t *testing.T) {
	gate := NewSignal(true)
	a := NewSignal("a")
	b := NewSignal("b")
	runs := 0

	eff := CreateEffect(func() Cleanup {
		runs++
		if gate.Get() {
			_ = a.Get()
		} else {
			_ = b.Get()
		}
		return nil
	})
	defer eff.Dispose()

	b.Set("B")
	if runs != 1 {
		t.Fatalf("unread branch must not trigger, got %d runs", runs)
	}

	gate.Set(false)
	if runs != 2 {
		t.Fatalf("expected run after gate flip, got %d", runs)
	}

	a.Set("A")
	if runs != 2 {
		t.Errorf("abandoned branch must not trigger, got %d runs", runs)
	}

	b.Set("BB")
	if runs != 3 {
		t.Errorf("active branch should trigger, got %d runs", runs)
	}
}

func TestEffectWriteDuringRunFoldsIntoPass(t *testing.T) {
	source := NewSignal(1)
	derived := NewSignal(0)
	sourceRuns := 0
	derivedRuns := 0

	mirror := CreateEffect(func() Cleanup {
		sourceRuns++
		v := source.Get()
		derived.Set(v * 10)
		return nil
	})
	defer mirror.Dispose()

	watcher := CreateEffect(func() Cleanup {
		derivedRuns++
		_ = derived.Get()
		return nil
	})
	defer watcher.Dispose()

	// The write from inside mirror runs watcher within the same pass,
	// before Set returns to the caller.
	err := source.Set(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sourceRuns != 2 {
		t.Errorf("expected mirror to run twice total, got %d", sourceRuns)
	}
	if derivedRuns != 2 {
		t.Errorf("expected watcher runs for create and the folded pass, got %d", derivedRuns)
	}
	if got := derived.Peek(); got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
}

func TestEffectPanicIsContained(t *testing.T) {
	trigger := NewSignal(false)
	runs := 0

	eff := CreateEffect(func() Cleanup {
		runs++
		if trigger.Get() {
			panic("effect exploded")
		}
		return nil
	})
	defer eff.Dispose()

	// The panic must not escape to the writer.
	if err := trigger.Set(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}

	// The effect stays subscribed and recovers on the next change.
	trigger.Set(false)
	if runs != 3 {
		t.Errorf("expected effect to keep running after a panic, got %d runs", runs)
	}
}

func TestEffectUntrackedRead(t *testing.T) {
	tracked := NewSignal(0)
	peeked := NewSignal(0)
	runs := 0

	eff := CreateEffect(func() Cleanup {
		runs++
		_ = tracked.Get()
		Untracked(func() {
			_ = peeked.Get()
		})
		return nil
	})
	defer eff.Dispose()

	peeked.Set(1)
	if runs != 1 {
		t.Errorf("untracked read must not subscribe, got %d runs", runs)
	}

	tracked.Set(1)
	if runs != 2 {
		t.Errorf("tracked read should subscribe, got %d runs", runs)
	}
}

func TestEffectCleanupPanicIsContained(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	eff := CreateEffect(func() Cleanup {
		runs++
		_ = count.Get()
		return func() { panic("cleanup exploded") }
	})

	count.Set(1)
	if runs != 2 {
		t.Errorf("cleanup panic must not stop the re-run, got %d runs", runs)
	}

	// Dispose runs the last cleanup, which panics again; still contained.
	eff.Dispose()
	if !eff.IsDisposed() {
		t.Error("expected IsDisposed after Dispose")
	}
}
