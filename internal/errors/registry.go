package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
//
// Code bands:
//
//	E001-E019  disposal
//	E020-E039  compute
//	E040-E049  cycle
//	E060-E079  usage
//	E080-E089  budget
//	E090-E099  config
//	E100+      cli
var registry = map[string]ErrorTemplate{
	// ============================================
	// Disposal Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryDisposal,
		Message:  "Write to a disposed signal",
		Detail:   "A Set or Update reached a signal after its owning scope was disposed. The write was rejected and no dependents were notified.",
		DocURL:   "https://ripple-go.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryDisposal,
		Message:  "Read of a disposed node",
		Detail:   "A Get reached a signal, memo, or task after disposal. Disposed nodes keep returning their last value but no longer track or recompute, so a read here usually means a stale reference escaped its scope.",
		DocURL:   "https://ripple-go.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryDisposal,
		Message:  "Refresh of a disposed task",
		Detail:   "Refresh or Mutate was called on a task whose scope is gone. The call was ignored and no fetch was started.",
		DocURL:   "https://ripple-go.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryDisposal,
		Message:  "Fetch settled after disposal",
		Detail:   "An in-flight fetch completed after its task was disposed. The result was discarded instead of being written back.",
		DocURL:   "https://ripple-go.dev/docs/errors/E004",
	},

	// ============================================
	// Compute Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryCompute,
		Message:  "Derived computation failed",
		Detail:   "A memo's compute function returned an error. The memo holds the error and re-raises it to every reader until a dependency change makes the computation succeed again.",
		DocURL:   "https://ripple-go.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryCompute,
		Message:  "Derived computation panicked",
		Detail:   "A memo's compute function panicked. The panic was recovered and converted into a compute error so one bad derivation cannot take down the rest of the graph.",
		DocURL:   "https://ripple-go.dev/docs/errors/E021",
	},
	"E022": {
		Category: CategoryCompute,
		Message:  "Task fetch failed",
		Detail:   "A task's fetch function returned an error. The task keeps its last good value and exposes the error through Err until a later fetch succeeds.",
		DocURL:   "https://ripple-go.dev/docs/errors/E022",
	},
	"E023": {
		Category: CategoryCompute,
		Message:  "Effect panicked",
		Detail:   "An effect body panicked during a run. The panic was recovered, the effect's previous dependencies were kept, and propagation continued to the remaining dependents.",
		DocURL:   "https://ripple-go.dev/docs/errors/E023",
	},
	"E024": {
		Category: CategoryCompute,
		Message:  "Cleanup panicked during disposal",
		Detail:   "A cleanup function registered with OnCleanup panicked while its scope was being disposed. The panic was contained and the remaining cleanups still ran.",
		DocURL:   "https://ripple-go.dev/docs/errors/E024",
	},

	// ============================================
	// Cycle Errors (E040-E049)
	// ============================================

	"E040": {
		Category: CategoryCycle,
		Message:  "Dependency cycle detected",
		Detail:   "A derived computation read a node that is currently computing, which closes a dependency loop. The re-entered node raises the cycle error and every computation on the loop reports it as its cause.",
		DocURL:   "https://ripple-go.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryCycle,
		Message:  "Self-referential computation",
		Detail:   "A memo or effect read its own output while computing it. Use the previous-value form of Update, or split the computation into two nodes.",
		DocURL:   "https://ripple-go.dev/docs/errors/E041",
	},

	// ============================================
	// Usage Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryUsage,
		Message:  "Focus requires an active scope",
		Detail:   "Focus, FocusKey, and FocusIndex create a view node that must be owned by a scope so it is disposed with its parent. Call them inside Run or a scope body.",
		DocURL:   "https://ripple-go.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategoryUsage,
		Message:  "OnCleanup requires an active scope",
		Detail:   "OnCleanup registers a function to run at scope disposal, so it only makes sense while a scope is active. Calls outside any scope are dropped.",
		DocURL:   "https://ripple-go.dev/docs/errors/E061",
	},
	"E062": {
		Category: CategoryUsage,
		Message:  "Tracked read crossed a goroutine",
		Detail:   "Dependency tracking is per goroutine. A Get on a new goroutine inside a computation records nothing, so the computation will not re-run when that source changes. Read the value before spawning, or pass it in explicitly.",
		DocURL:   "https://ripple-go.dev/docs/errors/E062",
	},
	"E063": {
		Category: CategoryUsage,
		Message:  "Write inside a derived computation",
		Detail:   "A memo's compute function wrote to a signal. Derivations should be pure reads. Move the write into an effect or the originating event handler.",
		DocURL:   "https://ripple-go.dev/docs/errors/E063",
	},

	// ============================================
	// Budget Errors (E080-E089)
	// ============================================

	"E080": {
		Category: CategoryBudget,
		Message:  "Effect update budget exceeded",
		Detail:   "An effect re-ran more times inside the budget window than the configured limit allows. Further runs are suppressed until the window slides. This usually means an effect writes to one of its own dependencies.",
		DocURL:   "https://ripple-go.dev/docs/errors/E080",
	},
	"E081": {
		Category: CategoryBudget,
		Message:  "Task fetch budget exceeded",
		Detail:   "A task started more fetches inside the budget window than the configured limit allows. Further fetches are suppressed until the window slides. Check for a watcher that refreshes the task on every change.",
		DocURL:   "https://ripple-go.dev/docs/errors/E081",
	},

	// ============================================
	// Configuration Errors (E090-E099)
	// ============================================

	"E090": {
		Category: CategoryConfig,
		Message:  "Invalid budget configuration",
		Detail:   "A budget window or limit was zero or negative. Budgets need a positive window and positive per-window limits to be enforceable.",
		DocURL:   "https://ripple-go.dev/docs/errors/E090",
	},
	"E091": {
		Category: CategoryConfig,
		Message:  "Invalid retry configuration",
		Detail:   "WithRetry was given a negative attempt count or backoff. Retries are disabled for this task.",
		DocURL:   "https://ripple-go.dev/docs/errors/E091",
	},

	// ============================================
	// CLI Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryCLI,
		Message:  "Unknown benchmark profile",
		Detail:   "The requested profile is not one of the built-in benchmark profiles.",
		DocURL:   "https://ripple-go.dev/docs/errors/E100",
	},
	"E101": {
		Category: CategoryCLI,
		Message:  "Invalid benchmark configuration",
		Detail:   "A benchmark flag was out of range or inconsistent with the selected profile.",
		DocURL:   "https://ripple-go.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryCLI,
		Message:  "Inspector failed to start",
		Detail:   "The inspector HTTP server could not bind its address. Another process may already be listening on the port.",
		DocURL:   "https://ripple-go.dev/docs/errors/E102",
	},
	"E103": {
		Category: CategoryCLI,
		Message:  "Report write failed",
		Detail:   "The benchmark report could not be written to the requested path.",
		DocURL:   "https://ripple-go.dev/docs/errors/E103",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
