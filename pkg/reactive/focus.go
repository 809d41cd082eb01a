package reactive

// Lens describes one part of a whole value: how to extract it, and how to
// build a new whole with that part replaced. Set must return a new value,
// copying the container one level; it must never mutate its input, or
// readers holding the previous whole would observe the edit.
type Lens[T, F any] struct {
	Get func(T) F
	Set func(T, F) T
}

// Focused is a two-way view into part of a signal's value. Reading tracks
// like any derived value. Writing builds a new whole through the lens and
// writes it to the underlying signal, so the write passes through the
// signal's own equality check and propagates to all of its readers, not
// just readers of this part.
//
// A Focused is bound to the identity of the signal it was built on. When a
// parent value is swapped out wholesale (a list row replaced, a map entry
// overwritten with a new object), build a fresh Focused for the new parent
// in a fresh scope and dispose the old one with it. That is why Focus
// requires an active scope: the focused view must die with the parent that
// produced it, or it keeps the old subscription alive forever.
type Focused[T, F any] struct {
	src   *Signal[T]
	lens  Lens[T, F]
	view  *Memo[F]
	equal func(F, F) bool
}

// Focus builds a two-way view of src through lens. Panics when no scope is
// active on the calling goroutine: focused views are always scoped.
//
//	profile := reactive.NewSignal(Profile{Name: "ada", Theme: "dark"})
//	theme := reactive.Focus(profile, reactive.Lens[Profile, string]{
//	    Get: func(p Profile) string { return p.Theme },
//	    Set: func(p Profile, t string) Profile { p.Theme = t; return p },
//	})
func Focus[T, F any](src *Signal[T], lens Lens[T, F]) *Focused[T, F] {
	rt := currentRuntime()
	if rt.currentScope() == nil {
		panic("reactive: Focus called with no active scope; create focused views inside Scope.Run")
	}

	f := &Focused[T, F]{src: src, lens: lens}

	// The view memo is owned by the Focused, which the scope disposes.
	restore := rt.activate()
	oldScope := rt.setCurrentScope(nil)
	f.view = NewMemoE(func() (F, error) {
		whole, err := src.TryGet()
		if err != nil {
			var zero F
			return zero, err
		}
		return lens.Get(whole), nil
	}).WithName(derivedName(src.Name(), "focus"))
	rt.setCurrentScope(oldScope)
	restore()

	adoptIntoScope(rt, f)
	return f
}

// FocusKey builds a two-way view of one key in a map-valued signal.
// Writing copies the map one level and replaces the key. Reading a missing
// key yields V's zero value.
func FocusKey[K comparable, V any](src *Signal[map[K]V], key K) *Focused[map[K]V, V] {
	return Focus(src, Lens[map[K]V, V]{
		Get: func(m map[K]V) V { return m[key] },
		Set: func(m map[K]V, v V) map[K]V {
			next := make(map[K]V, len(m)+1)
			for k, val := range m {
				next[k] = val
			}
			next[key] = v
			return next
		},
	})
}

// FocusIndex builds a two-way view of one index in a slice-valued signal.
// Writing copies the slice and replaces the element. An out-of-range index
// reads as E's zero value and ignores writes.
func FocusIndex[E any](src *Signal[[]E], i int) *Focused[[]E, E] {
	return Focus(src, Lens[[]E, E]{
		Get: func(s []E) E {
			if i < 0 || i >= len(s) {
				var zero E
				return zero
			}
			return s[i]
		},
		Set: func(s []E, v E) []E {
			if i < 0 || i >= len(s) {
				return s
			}
			next := make([]E, len(s))
			copy(next, s)
			next[i] = v
			return next
		},
	})
}

// WithName sets the diagnostic name. Chainable.
func (f *Focused[T, F]) WithName(name string) *Focused[T, F] {
	f.view.WithName(name)
	return f
}

// WithEquals sets the equality strategy used to decide whether a written
// part value is a change. Defaults to identity. Chainable.
//
// This gate matters more here than on a plain signal: lens.Set builds a
// fresh whole on every write, so without it an unchanged part would still
// look like a new whole to the underlying signal.
func (f *Focused[T, F]) WithEquals(equal func(a, b F) bool) *Focused[T, F] {
	f.equal = equal
	f.view.WithEquals(equal)
	return f
}

// Get returns the focused part, registering a dependency when tracked.
func (f *Focused[T, F]) Get() F {
	return f.view.Get()
}

// TryGet is Get with the underlying error state: a disposed view or an
// errored upstream surfaces here.
func (f *Focused[T, F]) TryGet() (F, error) {
	return f.view.TryGet()
}

// Peek returns the focused part without registering a dependency.
func (f *Focused[T, F]) Peek() F {
	return f.view.Peek()
}

// Set writes a new part value. When the value differs from the current
// part under the focused equality, the whole is rebuilt through the lens
// and written to the underlying signal; every other field of the whole is
// carried over unchanged.
func (f *Focused[T, F]) Set(v F) error {
	if f.view.IsDisposed() {
		return &DisposalError{Op: "set", NodeID: f.view.ID(), Name: f.view.Name(), Kind: KindDerived}
	}
	whole := f.src.Peek()
	if f.equals(f.lens.Get(whole), v) {
		return nil
	}
	return f.src.Set(f.lens.Set(whole, v))
}

// Update applies fn to the current part and writes the result back.
func (f *Focused[T, F]) Update(fn func(F) F) error {
	return f.Set(fn(f.lens.Get(f.src.Peek())))
}

// Dispose detaches the view from the underlying signal. The signal itself
// is untouched. Idempotent; the owning scope calls this automatically.
func (f *Focused[T, F]) Dispose() {
	f.view.Dispose()
}

// ID returns the unique identifier of the backing view node.
func (f *Focused[T, F]) ID() uint64 {
	return f.view.ID()
}

// Name returns the diagnostic name, if one was set.
func (f *Focused[T, F]) Name() string {
	return f.view.Name()
}

// IsDisposed reports whether the view has been disposed.
func (f *Focused[T, F]) IsDisposed() bool {
	return f.view.IsDisposed()
}

func (f *Focused[T, F]) equals(a, b F) bool {
	if f.equal != nil {
		return f.equal(a, b)
	}
	return identityEquals(a, b)
}
