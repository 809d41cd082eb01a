package reactive

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

// ErrBudgetExceeded is returned when an update budget limit is exceeded.
// This happens when an effect re-runs or a task refreshes more often than the
// configured window allows, usually because an effect writes one of its own
// dependencies.
//
// Applications should handle this by:
// - Logging the event for debugging
// - Breaking the write-read cycle in the offending effect
// - Raising the budget if the rate is intentional
var ErrBudgetExceeded = errors.New("reactive: update budget exceeded")

// ErrDisposed is the sentinel matched by errors.Is for any *DisposalError.
// Prefer errors.As with *DisposalError when the node identity is needed.
var ErrDisposed = errors.New("reactive: node is disposed")

// ErrCycle is the sentinel matched by errors.Is for any *CycleError.
var ErrCycle = errors.New("reactive: dependency cycle detected")

// =============================================================================
// Error Taxonomy
// =============================================================================

// DisposalError reports an operation attempted on a disposed node or scope.
// It is fatal to the operation, not to the process: the caller simply holds
// a reference that outlived its scope.
type DisposalError struct {
	Op     string   // The attempted operation: "set", "update", "get", "refresh"
	NodeID uint64   // ID of the disposed node
	Name   string   // Diagnostic name, may be empty
	Kind   NodeKind // What kind of node was touched
}

// Error implements the error interface.
func (e *DisposalError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("reactive: %s on disposed %s %q (id %d)", e.Op, e.Kind, e.Name, e.NodeID)
	}
	return fmt.Sprintf("reactive: %s on disposed %s (id %d)", e.Op, e.Kind, e.NodeID)
}

// Is reports whether target is ErrDisposed, enabling errors.Is checks
// without a concrete type assertion.
func (e *DisposalError) Is(target error) bool {
	return target == ErrDisposed
}

// ComputeError reports that a derived or task computation failed.
// The error is stored on the node and re-surfaced to every reader until a
// later recomputation succeeds, preserving the triggering cause.
type ComputeError struct {
	NodeID uint64
	Name   string
	Kind   NodeKind

	// Cause is the error the computation returned, or the recovered panic
	// value wrapped as an error.
	Cause error

	// Recovered is true when Cause came from a recovered panic rather than
	// an error return.
	Recovered bool
}

// Error implements the error interface.
func (e *ComputeError) Error() string {
	label := e.Name
	if label == "" {
		label = fmt.Sprintf("#%d", e.NodeID)
	}
	if e.Recovered {
		return fmt.Sprintf("reactive: %s %s panicked: %v", e.Kind, label, e.Cause)
	}
	return fmt.Sprintf("reactive: %s %s failed: %v", e.Kind, label, e.Cause)
}

// Unwrap returns the triggering cause for errors.Is/As support.
func (e *ComputeError) Unwrap() error {
	return e.Cause
}

// CycleError reports that a node was observed reading itself, directly or
// transitively, during its own recomputation. This is a programming error:
// it fails fast instead of looping or silently serving stale data.
type CycleError struct {
	NodeID uint64
	Name   string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("reactive: dependency cycle detected at %q (id %d)", e.Name, e.NodeID)
	}
	return fmt.Sprintf("reactive: dependency cycle detected at node %d", e.NodeID)
}

// Is reports whether target is ErrCycle.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// recoveredError converts a recovered panic value into an error, preserving
// it unchanged when it already is one.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
