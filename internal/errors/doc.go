// Package errors provides structured, actionable error messages for the
// Glint CLI and configuration layer.
//
// The errors package implements a small error system that:
//   - Explains what went wrong in plain language
//   - Suggests how to fix issues, with command examples where useful
//   - Links to documentation for deeper understanding
//
// # Error Categories
//
// Errors are organized into categories:
//   - runtime: reactive runtime conditions (cycles, recovered panics)
//   - config: glint.json and environment override problems
//   - cli: command usage and tooling failures
//
// # Error Codes
//
// Each error has a unique code (e.g., "E100") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.New("E120").
//	    WithDetail("No glint.json found in /tmp/scratch").
//	    WithSuggestion("Run 'glint init' to create a project here")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E120: Not a Glint project
//	//
//	//   No glint.json found in /tmp/scratch
//	//
//	//   Hint: Run 'glint init' to create a project here
//	//
//	//   Learn more: https://glintui.dev/docs/errors/E120
package errors
