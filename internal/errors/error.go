package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	CategoryRuntime Category = "runtime"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
)

// GlintError is a structured error with a stable code, suggestions, and documentation.
type GlintError struct {
	// Code is a unique error identifier (e.g., "E100").
	Code string

	// Category is the error type (runtime, config, cli).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is a command or snippet showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *GlintError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *GlintError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *GlintError) WithDetail(d string) *GlintError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *GlintError) WithSuggestion(s string) *GlintError {
	e.Suggestion = s
	return e
}

// WithExample adds a usage example to the error.
func (e *GlintError) WithExample(ex string) *GlintError {
	e.Example = ex
	return e
}

// Wrap wraps another error.
func (e *GlintError) Wrap(err error) *GlintError {
	e.Wrapped = err
	return e
}

// New creates a GlintError from a registered error code.
func New(code string) *GlintError {
	template, ok := registry[code]
	if !ok {
		return &GlintError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &GlintError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new GlintError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *GlintError {
	return &GlintError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a GlintError.
func FromError(err error, code string) *GlintError {
	if err == nil {
		return nil
	}
	if ge, ok := err.(*GlintError); ok {
		return ge
	}
	return New(code).Wrap(err)
}
