package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/glintui/glint/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬  ┬┌┐┌┌┬┐
  │ ┬│  ││││ │
  └─┘┴─┘┴┘└┘ ┴
`

// colorize reports whether stdout is a terminal that wants ANSI colors.
var colorize = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func main() {
	if !colorize {
		errors.DisableColors()
	}

	rootCmd := &cobra.Command{
		Use:   "glint",
		Short: "Fine-grained reactive state for Go",
		Long: `Glint is a fine-grained reactive runtime for Go.

Signals hold state, derived values cache computations over them, and
effects rerun automatically when the values they read change. The CLI
ships the supporting tooling:

  • demo  - scripted reactive scenario, optionally with a live inspector
  • bench - runtime micro-benchmarks with JSON reporting
  • init  - create a glint.json for project-level settings`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(
		initCmd(),
		demoCmd(),
		benchCmd(),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the Glint ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// paint wraps text in an ANSI code when stdout is a terminal.
func paint(code, text string) string {
	if !colorize {
		return text
	}
	return code + text + "\033[0m"
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("%s %s\n", paint("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("%s %s\n", paint("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", paint("\033[31m", "✗"), fmt.Sprintf(format, args...))
}
