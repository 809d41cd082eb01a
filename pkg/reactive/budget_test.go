package reactive

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBudgetStopsEffectStorm(t *testing.T) {
	rt := NewRuntime(
		WithRuntimeName("storm"),
		WithBudget(BudgetConfig{MaxEffectRunsPerWindow: 3, Window: time.Second}),
	)
	obs := &recordingObserver{}
	rt.Observe(obs)

	var setErr error
	rt.Run(func() {
		ping := NewSignal(0)
		pong := NewSignal(0)

		// Two effects feeding each other: unbounded without a budget.
		effA := CreateEffect(func() Cleanup {
			if v := ping.Get(); v > 0 {
				pong.Set(v + 1)
			}
			return nil
		})
		defer effA.Dispose()
		effB := CreateEffect(func() Cleanup {
			if v := pong.Get(); v > 0 {
				ping.Set(v + 1)
			}
			return nil
		})
		defer effB.Dispose()

		setErr = ping.Set(1)
	})

	if !errors.Is(setErr, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded from the triggering write, got %v", setErr)
	}

	obs.mu.Lock()
	budgets := len(obs.budgets)
	var kind NodeKind
	if budgets > 0 {
		kind = obs.budgets[0].Kind
	}
	obs.mu.Unlock()

	if budgets == 0 {
		t.Fatal("expected a BudgetExceeded event")
	}
	if kind != KindEffect {
		t.Errorf("expected effect kind in budget event, got %v", kind)
	}
}

func TestBudgetWindowSlides(t *testing.T) {
	rt := NewRuntime(
		WithBudget(BudgetConfig{MaxEffectRunsPerWindow: 2, Window: 40 * time.Millisecond}),
	)

	rt.Run(func() {
		sig := NewSignal(0)
		runs := 0
		eff := CreateEffect(func() Cleanup {
			runs++
			_ = sig.Get()
			return nil
		})
		defer eff.Dispose()

		if err := sig.Set(1); err != nil {
			t.Fatalf("first write should pass, got %v", err)
		}
		if err := sig.Set(2); err != nil {
			t.Fatalf("second write should pass, got %v", err)
		}
		if err := sig.Set(3); !errors.Is(err, ErrBudgetExceeded) {
			t.Fatalf("third write inside the window should trip, got %v", err)
		}
		if runs != 3 {
			t.Fatalf("tripped run must not execute, got %d runs", runs)
		}

		time.Sleep(60 * time.Millisecond)

		if err := sig.Set(4); err != nil {
			t.Fatalf("write after the window slid should pass, got %v", err)
		}
		if runs != 4 {
			t.Errorf("effect should run again after the window slid, got %d runs", runs)
		}
	})
}

func TestBudgetUnlimitedByDefault(t *testing.T) {
	rt := NewRuntime()

	rt.Run(func() {
		sig := NewSignal(0)
		runs := 0
		eff := CreateEffect(func() Cleanup {
			runs++
			_ = sig.Get()
			return nil
		})
		defer eff.Dispose()

		for i := 1; i <= 50; i++ {
			if err := sig.Set(i); err != nil {
				t.Fatalf("unbudgeted runtime must not trip, got %v at write %d", err, i)
			}
		}
		if runs != 51 {
			t.Errorf("expected 51 runs, got %d", runs)
		}
	})
}

func TestBudgetLimitsTaskFetches(t *testing.T) {
	rt := NewRuntime(
		WithBudget(BudgetConfig{MaxTaskFetchesPerWindow: 1, Window: time.Second}),
	)
	obs := &recordingObserver{}
	rt.Observe(obs)

	rt.Run(func() {
		task := NewTask(func(ctx context.Context) (int, error) {
			return 7, nil
		})
		defer task.Dispose()

		waitFor(t, func() bool { return task.Peek() == 7 }, "initial fetch")

		err := task.Refresh()
		if !errors.Is(err, ErrBudgetExceeded) {
			t.Fatalf("expected ErrBudgetExceeded from second fetch in window, got %v", err)
		}

		// The rejected refresh leaves the task untouched.
		if got := task.Peek(); got != 7 {
			t.Errorf("value should be unchanged, got %d", got)
		}
		if task.Err() != nil {
			t.Errorf("budget rejection is not a task error, got %v", task.Err())
		}
		if task.Pending() {
			t.Error("no fetch should be in flight after a rejected refresh")
		}
	})

	obs.mu.Lock()
	budgets := len(obs.budgets)
	var kind NodeKind
	if budgets > 0 {
		kind = obs.budgets[0].Kind
	}
	obs.mu.Unlock()

	if budgets == 0 {
		t.Fatal("expected a BudgetExceeded event")
	}
	if kind != KindTask {
		t.Errorf("expected task kind in budget event, got %v", kind)
	}
}
