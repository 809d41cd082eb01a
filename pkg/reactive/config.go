package reactive

// DevMode enables development-time checks and verbose diagnostics.
// When true:
//   - Cycle detection logs the offending node with its call site
//   - Disposer panics are logged with stack context
//   - Node creation records call sites for introspection
//
// When false (production), only the cheap invariant checks run.
//
// Set this at application startup:
//
//	func main() {
//	    reactive.DevMode = os.Getenv("ENV") != "production"
//	    // ...
//	}
var DevMode = false

// DebugConfig controls debug logging for development.
// These settings affect logging only, never semantics.
type DebugConfig struct {
	// LogRecomputes logs every memo recomputation with its duration.
	// Useful for finding hot derived values.
	// Default: false.
	LogRecomputes bool

	// LogPropagation logs each propagation pass with origin and fanout.
	// Useful for debugging unexpected invalidation cascades.
	// Default: false.
	LogPropagation bool

	// LogBudget logs when update budgets are checked or exceeded.
	// Useful for tuning budget limits.
	// Default: false.
	LogBudget bool

	// IncludeCallSites includes file:line of node creation in debug output
	// and NodeInfo snapshots. Has a small allocation cost per node.
	// Default: false.
	IncludeCallSites bool
}

// DefaultDebugConfig returns a DebugConfig with all debugging disabled.
// Enable individual options as needed for development.
func DefaultDebugConfig() DebugConfig {
	return DebugConfig{}
}

// Debug is the global debug configuration.
// Modify this at application startup to enable debugging features.
var Debug = DefaultDebugConfig()
