package reactive

// Readable is the read surface shared by signals, memos, and focused
// values. Operators accept any Readable, so pipelines compose freely.
//
// TryGet is part of the interface so that a stored compute error travels
// through an operator chain instead of being flattened to a zero value.
type Readable[T any] interface {
	// Get returns the current value, registering a dependency when called
	// inside a tracking context.
	Get() T

	// TryGet is Get with the node's error state.
	TryGet() (T, error)
}

// Map derives a node whose value is fn applied to src. An upstream error
// passes through unchanged; fn is not called for errored reads.
//
//	celsius := reactive.NewSignal(21.5)
//	fahrenheit := reactive.Map(celsius, func(c float64) float64 { return c*9/5 + 32 })
func Map[T, U any](src Readable[T], fn func(T) U) *Memo[U] {
	return NewMemoE(func() (U, error) {
		v, err := src.TryGet()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
}

// Filter derives a node that follows src only while pred holds. A rejected
// value leaves the node at its previous value; until the first accepted
// value it reads as T's zero value. Upstream errors pass through and leave
// the retained value untouched.
func Filter[T any](src Readable[T], pred func(T) bool) *Memo[T] {
	var last T
	return NewMemoE(func() (T, error) {
		v, err := src.TryGet()
		if err != nil {
			return last, err
		}
		if pred(v) {
			last = v
		}
		return last, nil
	})
}

// Scan derives a node that folds each change of src into an accumulator,
// starting from seed. The value src holds when Scan is called is not
// folded; only subsequent changes are. The node is eager, so it folds once
// per propagation pass: writes grouped in a batch are observed as their
// final value.
//
//	total := reactive.Scan(amount, 0, func(acc, x int) int { return acc + x })
//
// Upstream errors pass through without advancing the accumulator.
func Scan[T, A any](src Readable[T], seed A, fn func(A, T) A) *Memo[A] {
	var (
		acc      = seed
		lastSeen T
		primed   bool
	)
	return NewMemoE(func() (A, error) {
		v, err := src.TryGet()
		if err != nil {
			return acc, err
		}
		if !primed {
			primed = true
			lastSeen = v
			return acc, nil
		}
		// A dirty upstream can settle back to its previous value (a memo
		// collapsing two inputs to the same result); that is not a change.
		if identityEquals(lastSeen, v) {
			return acc, nil
		}
		lastSeen = v
		acc = fn(acc, v)
		return acc, nil
	}).WithEager()
}

// Subscribe runs fn with src's new value on every change after the current
// one. The initial value is not delivered; errored reads are skipped but
// keep the subscription alive. Dispose the returned effect (or its owning
// scope) to unsubscribe.
//
// This is the hook for binding layers: subscribe on mount, dispose on
// unmount, read inside Untracked during render.
func Subscribe[T any](src Readable[T], fn func(T)) *Effect {
	first := true
	return CreateEffect(func() Cleanup {
		v, err := src.TryGet()
		if first {
			first = false
			return nil
		}
		if err != nil {
			return nil
		}
		fn(v)
		return nil
	})
}
