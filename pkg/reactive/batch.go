package reactive

// Batch groups multiple writes into a single propagation pass. Dirty marks
// produced inside fn are collected, deduplicated by node, and applied when
// the outermost batch completes, so a consumer updating several related
// signals pays for one pass instead of one per write.
//
// Batches nest: marks flush only when the outermost batch ends. The returned
// error is the flush's propagation result, as Set would have returned it.
//
// Example:
//
//	reactive.Batch(func() {
//	    firstName.Set("Ada")
//	    lastName.Set("Lovelace")
//	})
//	// Dependents of both signals recompute once.
func Batch(fn func()) error {
	return currentRuntime().Batch(fn)
}

// BatchNamed runs fn as a named batch. The name appears in debug logs and in
// the propagation event the flush emits.
func BatchNamed(name string, fn func()) error {
	return currentRuntime().BatchNamed(name, fn)
}

// Batch groups writes on this runtime. See the package-level Batch.
func (rt *Runtime) Batch(fn func()) error {
	return rt.BatchNamed("batch", fn)
}

// BatchNamed groups writes on this runtime under a diagnostic name.
func (rt *Runtime) BatchNamed(name string, fn func()) (err error) {
	restore := rt.activate()
	defer restore()

	ctx := rt.ctx()
	ctx.batchDepth++
	defer func() {
		ctx.batchDepth--
		if ctx.batchDepth == 0 {
			err = rt.flushBatch(ctx, name)
		}
	}()

	fn()
	return nil
}

// flushBatch applies the marks queued during a batch as one propagation
// pass. Listeners queued multiple times (several writes to one signal, or
// fan-in) are marked once.
func (rt *Runtime) flushBatch(ctx *trackingContext, name string) error {
	marks := ctx.pendingMarks
	ctx.pendingMarks = nil
	if len(marks) == 0 {
		return nil
	}

	seen := make(map[uint64]bool, len(marks))
	unique := make([]Listener, 0, len(marks))
	for _, l := range marks {
		id := l.ID()
		if !seen[id] {
			seen[id] = true
			unique = append(unique, l)
		}
	}

	markAll := func() {
		for _, l := range unique {
			l.MarkDirty()
		}
	}

	// A batch opened inside an effect body flushes while the outer pass is
	// still active; its marks fold into that pass.
	if ctx.passActive {
		markAll()
		return nil
	}

	return rt.runPass(ctx, 0, name, markAll)
}
