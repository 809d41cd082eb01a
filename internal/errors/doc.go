// Package errors provides structured, actionable error messages for Ripple's
// command-line tools.
//
// The errors package implements an error system that:
//   - Shows the source location where the offending node was created
//   - Explains what went wrong in plain language
//   - Suggests how to fix issues with code examples
//   - Links to documentation for deeper understanding
//
// # Error Categories
//
// Errors are organized into categories:
//   - disposal: Operations on nodes whose scope is gone
//   - compute: Failed or panicking derivations, effects, and fetches
//   - cycle: Dependency loops in the reactive graph
//   - usage: API misuse (missing scope, cross-goroutine reads)
//   - budget: Update-budget trips for runaway effects and fetch loops
//   - config: Invalid runtime or task configuration
//   - cli: Command-line tool failures
//
// # Error Codes
//
// Each error has a unique code (e.g., "E040") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.New("E040").
//	    WithCallSite("app/stats.go:15").
//	    WithSuggestion("Break the loop by reading one side with Untracked")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E040: Dependency cycle detected
//	//
//	//   app/stats.go:15
//	//
//	//     13 │ total := ripple.NewMemo(func() int {
//	//     14 │     return mean.Get() * count.Get()
//	//   → 15 │ })
//	//     16 │ mean := ripple.NewMemo(func() int {
//	//     17 │     return total.Get() / count.Get()
//	//
//	//   Hint: Break the loop by reading one side with Untracked
//	//
//	//   Learn more: https://ripple-go.dev/docs/errors/E040
package errors
