package reactive

import (
	"sync"
	"time"
)

// BudgetConfig holds the limits for a runtime's update budget. The budget
// protects against amplification bugs where effects cascade into more
// effects, most commonly an effect writing one of its own dependencies.
//
// A zero limit means unlimited. A zero Window defaults to one second.
type BudgetConfig struct {
	// MaxEffectRunsPerWindow caps how often a single effect or eager memo
	// may run within the window before the drain aborts with
	// ErrBudgetExceeded.
	MaxEffectRunsPerWindow int

	// MaxTaskFetchesPerWindow caps how often a single task may start a
	// fetch within the window.
	MaxTaskFetchesPerWindow int

	// Window is the sliding window duration the limits apply to.
	Window time.Duration
}

// updateBudget tracks per-node run and fetch rates against the configured
// limits.
type updateBudget struct {
	maxRuns    int
	maxFetches int
	window     time.Duration

	// windows holds one sliding window per node, keyed by node ID.
	// Run and fetch windows are disjoint key spaces in practice because a
	// node is either runnable or a task, never both.
	windows map[uint64]*slidingWindow
	mu      sync.Mutex
}

func newUpdateBudget(cfg BudgetConfig) *updateBudget {
	window := cfg.Window
	if window == 0 {
		window = time.Second
	}
	return &updateBudget{
		maxRuns:    cfg.MaxEffectRunsPerWindow,
		maxFetches: cfg.MaxTaskFetchesPerWindow,
		window:     window,
		windows:    make(map[uint64]*slidingWindow),
	}
}

// checkRun records one run for the node and reports whether it stayed
// within budget. Returns nil when runs are unlimited.
func (b *updateBudget) checkRun(id uint64) error {
	return b.check(id, b.maxRuns)
}

// checkFetch records one task fetch start for the node.
func (b *updateBudget) checkFetch(id uint64) error {
	return b.check(id, b.maxFetches)
}

func (b *updateBudget) check(id uint64, max int) error {
	if b == nil || max == 0 {
		return nil
	}

	b.mu.Lock()
	w := b.windows[id]
	if w == nil {
		w = newSlidingWindow(b.window, max)
		b.windows[id] = w
	}
	b.mu.Unlock()

	if !w.tryAdd() {
		return ErrBudgetExceeded
	}
	return nil
}

// forget drops a disposed node's window.
func (b *updateBudget) forget(id uint64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	delete(b.windows, id)
	b.mu.Unlock()
}

// slidingWindow tracks events within a time window for rate limiting.
type slidingWindow struct {
	events     []time.Time
	windowSize time.Duration
	maxEvents  int
	mu         sync.Mutex
}

func newSlidingWindow(windowSize time.Duration, maxEvents int) *slidingWindow {
	return &slidingWindow{
		windowSize: windowSize,
		maxEvents:  maxEvents,
	}
}

// tryAdd attempts to add an event to the window.
// Returns true if allowed (under limit), false if rate limited.
func (w *slidingWindow) tryAdd() bool {
	if w.maxEvents == 0 {
		return true // No limit
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-w.windowSize)

	// Remove old events outside the window
	validIdx := 0
	for _, t := range w.events {
		if t.After(cutoff) {
			w.events[validIdx] = t
			validIdx++
		}
	}
	w.events = w.events[:validIdx]

	// Check if under limit
	if len(w.events) >= w.maxEvents {
		return false
	}

	// Add new event
	w.events = append(w.events, now)
	return true
}
