package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ripple-go/ripple/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦═╗╦╔═╗╔═╗╦  ╔═╗
  ╠╦╝║╠═╝╠═╝║  ║╣
  ╩╚═╩╩  ╩  ╩═╝╚═╝
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "ripple",
		Short: "Tools for the Ripple reactive state runtime",
		Long: `Ripple is a fine-grained reactive state runtime for Go.

Signals hold state, memos derive values from it, effects react to
changes, and tasks bridge asynchronous work into the graph. This CLI
carries the runtime's supporting tools:

  • Synthetic-graph benchmarks with latency percentiles
  • A live demo graph with the inspector attached
  • Version and build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(
		benchCmd(),
		demoCmd(),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the Ripple ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
