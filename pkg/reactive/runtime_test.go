package reactive

import (
	"testing"
)

func TestRuntimeIsolation(t *testing.T) {
	rt1 := NewRuntime(WithRuntimeName("one"))
	rt2 := NewRuntime(WithRuntimeName("two"))

	var sig1, sig2 *Signal[int]
	runs1, runs2 := 0, 0

	rt1.Run(func() {
		sig1 = NewSignal(0)
		CreateEffect(func() Cleanup {
			runs1++
			_ = sig1.Get()
			return nil
		})
	})
	rt2.Run(func() {
		sig2 = NewSignal(0)
		CreateEffect(func() Cleanup {
			runs2++
			_ = sig2.Get()
			return nil
		})
	})

	sig1.Set(1)

	if runs1 != 2 {
		t.Errorf("expected 2 runs in the written runtime, got %d", runs1)
	}
	if runs2 != 1 {
		t.Errorf("writes in one runtime must not reach another, got %d runs", runs2)
	}

	// Registries are separate.
	if _, ok := rt1.Node(sig1.ID()); !ok {
		t.Error("rt1 should know its own signal")
	}
	if _, ok := rt1.Node(sig2.ID()); ok {
		t.Error("rt1 must not know rt2's signal")
	}
	if _, ok := rt2.Node(sig2.ID()); !ok {
		t.Error("rt2 should know its own signal")
	}
}

func TestRuntimeRunNests(t *testing.T) {
	inner := NewRuntime(WithRuntimeName("inner"))

	outerSig := NewSignal(1) // default runtime
	var innerSig *Signal[int]

	inner.Run(func() {
		innerSig = NewSignal(2)
	})

	if _, ok := inner.Node(innerSig.ID()); !ok {
		t.Error("node created inside Run belongs to that runtime")
	}
	if _, ok := inner.Node(outerSig.ID()); ok {
		t.Error("default-runtime node must not appear in the inner registry")
	}
	if _, ok := Default().Node(outerSig.ID()); !ok {
		t.Error("default runtime should hold the outer signal")
	}

	outerSig.Dispose()
	innerSig.Dispose()
}

func TestObserverNodeLifecycle(t *testing.T) {
	rt := NewRuntime()
	obs := &recordingObserver{}
	rt.Observe(obs)

	var id uint64
	rt.Run(func() {
		sig := NewSignal(10).WithName("lifecycle")
		id = sig.ID()
		sig.Dispose()
	})

	obs.mu.Lock()
	defer obs.mu.Unlock()

	var created, disposed bool
	for _, info := range obs.created {
		if info.ID == id {
			created = true
			if info.Name != "lifecycle" {
				t.Errorf("expected name in creation event, got %q", info.Name)
			}
			if info.Kind != KindSource {
				t.Errorf("expected source kind, got %v", info.Kind)
			}
		}
	}
	for _, info := range obs.disposed {
		if info.ID == id {
			disposed = true
		}
	}
	if !created {
		t.Error("expected a NodeCreated event")
	}
	if !disposed {
		t.Error("expected a NodeDisposed event")
	}
}

func TestObserverWriteEvents(t *testing.T) {
	rt := NewRuntime()
	obs := &recordingObserver{}
	rt.Observe(obs)

	rt.Run(func() {
		sig := NewSignal(1)
		sig.Set(2) // changed
		sig.Set(2) // no-op
	})

	obs.mu.Lock()
	defer obs.mu.Unlock()

	if len(obs.writes) != 2 {
		t.Fatalf("expected 2 write events, got %d", len(obs.writes))
	}
	if !obs.writes[0].Changed {
		t.Error("first write should be marked changed")
	}
	if obs.writes[1].Changed {
		t.Error("equal write should be marked unchanged")
	}
}

func TestObserverRecomputeEvents(t *testing.T) {
	rt := NewRuntime()
	obs := &recordingObserver{}
	rt.Observe(obs)

	rt.Run(func() {
		sig := NewSignal(2)
		doubled := NewMemo(func() int { return sig.Get() * 2 }).WithName("doubled")
		_ = doubled.Get()
	})

	obs.mu.Lock()
	defer obs.mu.Unlock()

	found := false
	for _, ev := range obs.computes {
		if ev.Name == "doubled" {
			found = true
			if ev.Kind != KindDerived {
				t.Errorf("expected derived kind, got %v", ev.Kind)
			}
			if ev.Err != nil {
				t.Errorf("expected no error, got %v", ev.Err)
			}
		}
	}
	if !found {
		t.Error("expected a recompute event for the memo")
	}
}

func TestUnobserveStopsEvents(t *testing.T) {
	rt := NewRuntime()
	obs := &recordingObserver{}
	rt.Observe(obs)

	rt.Run(func() {
		sig := NewSignal(1)
		sig.Set(2)

		rt.Unobserve(obs)
		sig.Set(3)
	})

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.writes) != 1 {
		t.Errorf("expected events to stop after Unobserve, got %d writes", len(obs.writes))
	}
}

func TestNodesSnapshot(t *testing.T) {
	rt := NewRuntime()

	rt.Run(func() {
		sig := NewSignal(5).WithName("source")
		memo := NewMemo(func() int { return sig.Get() + 1 }).WithName("derived")
		_ = memo.Get()

		nodes := rt.Nodes()
		if len(nodes) != 2 {
			t.Fatalf("expected 2 nodes, got %d", len(nodes))
		}
		// Ordered by ID: creation order here.
		if nodes[0].Name != "source" || nodes[1].Name != "derived" {
			t.Errorf("unexpected snapshot order: %q, %q", nodes[0].Name, nodes[1].Name)
		}
		if nodes[0].Value != 5 {
			t.Errorf("expected source value 5, got %v", nodes[0].Value)
		}
		if nodes[1].Value != 6 {
			t.Errorf("expected derived value 6, got %v", nodes[1].Value)
		}
		if nodes[1].Deps != 1 {
			t.Errorf("expected 1 dependency on the memo, got %d", nodes[1].Deps)
		}
		if nodes[0].Subs != 1 {
			t.Errorf("expected 1 subscriber on the source, got %d", nodes[0].Subs)
		}

		sig.Dispose()
		memo.Dispose()
		if remaining := rt.Nodes(); len(remaining) != 0 {
			t.Errorf("disposed nodes must leave the registry, got %d", len(remaining))
		}
	})
}

func TestEdgesSnapshot(t *testing.T) {
	rt := NewRuntime()

	rt.Run(func() {
		a := NewSignal(1)
		b := NewSignal(2)
		sum := NewMemo(func() int { return a.Get() + b.Get() })
		_ = sum.Get()

		edges := rt.Edges()
		if len(edges) != 2 {
			t.Fatalf("expected 2 edges, got %d", len(edges))
		}
		for _, e := range edges {
			if e.Dependent != sum.ID() {
				t.Errorf("expected dependent %d, got %d", sum.ID(), e.Dependent)
			}
		}
		if edges[0].Source != a.ID() || edges[1].Source != b.ID() {
			t.Errorf("expected sources %d and %d, got %d and %d",
				a.ID(), b.ID(), edges[0].Source, edges[1].Source)
		}
	})
}

func TestNodeStatusTransitions(t *testing.T) {
	rt := NewRuntime()

	rt.Run(func() {
		sig := NewSignal(1)
		memo := NewMemo(func() int { return sig.Get() }).WithName("mirror")
		_ = memo.Get()

		info, ok := rt.Node(memo.ID())
		if !ok {
			t.Fatal("memo should be registered")
		}
		if info.Status != StatusClean {
			t.Errorf("expected clean after read, got %v", info.Status)
		}

		sig.Set(2)
		info, _ = rt.Node(memo.ID())
		if info.Status != StatusDirty {
			t.Errorf("expected dirty after source write, got %v", info.Status)
		}

		_ = memo.Get()
		info, _ = rt.Node(memo.ID())
		if info.Status != StatusClean {
			t.Errorf("expected clean after re-read, got %v", info.Status)
		}
	})
}
