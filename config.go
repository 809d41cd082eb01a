package ripple

import (
	"log/slog"
	"time"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the main runtime configuration.
// This is the user-friendly entry point for configuring a Ripple runtime.
type Config struct {
	// Name identifies the runtime in logs, observer events, and inspector
	// output. Default: "".
	Name string

	// Logger is the structured logger for runtime diagnostics (budget
	// violations, disposer panics, debug logging).
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Budget rate-limits effect reruns and task fetches per node to stop
	// amplification bugs (e.g. an effect writing one of its own
	// dependencies). Zero limits mean unlimited; see DefaultBudget for the
	// recommended starting point.
	Budget BudgetConfig

	// DevMode enables development-time checks: call-site capture for
	// nodes, cycle diagnostics with origin locations, disposer panic
	// stacks. Process-wide: it applies to every runtime in the process,
	// not only the one built from this Config. False leaves the current
	// setting untouched.
	DevMode bool

	// Debug holds development-time logging toggles. Process-wide, like
	// DevMode. Nil leaves the current settings untouched.
	Debug *DebugConfig
}

// =============================================================================
// Default Configurations
// =============================================================================

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Budget: DefaultBudget(),
	}
}

// DefaultBudget returns the recommended update budget: generous enough for
// real workloads, tight enough that a runaway feedback loop aborts within
// one window instead of spinning. Limits are per node.
func DefaultBudget() BudgetConfig {
	return BudgetConfig{
		MaxEffectRunsPerWindow:  10000,
		MaxTaskFetchesPerWindow: 1000,
		Window:                  time.Second,
	}
}

// =============================================================================
// Config to Runtime Translation
// =============================================================================

// New creates a Runtime from cfg. Zero-value fields keep the core defaults,
// so New(Config{}) is equivalent to NewRuntime().
func New(cfg Config) *Runtime {
	if cfg.DevMode {
		reactive.DevMode = true
	}
	if cfg.Debug != nil {
		reactive.Debug = *cfg.Debug
	}
	return reactive.NewRuntime(buildRuntimeOptions(cfg)...)
}

// buildRuntimeOptions converts the user-friendly ripple.Config to core
// runtime options.
func buildRuntimeOptions(cfg Config) []reactive.RuntimeOption {
	var opts []reactive.RuntimeOption

	if cfg.Name != "" {
		opts = append(opts, reactive.WithRuntimeName(cfg.Name))
	}
	if cfg.Logger != nil {
		opts = append(opts, reactive.WithLogger(cfg.Logger))
	}
	if cfg.Budget != (BudgetConfig{}) {
		opts = append(opts, reactive.WithBudget(cfg.Budget))
	}

	return opts
}
