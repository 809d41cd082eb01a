package errors

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryDisposal Category = "disposal"
	CategoryCompute  Category = "compute"
	CategoryCycle    Category = "cycle"
	CategoryUsage    Category = "usage"
	CategoryBudget   Category = "budget"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Location represents a source code location.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// RippleError is a structured error with source location, suggestions, and
// documentation links. The CLI and inspector surfaces use it to turn a core
// error (a cycle, a budget trip, a disposed write) into an actionable report.
type RippleError struct {
	// Code is a unique error identifier (e.g., "E040").
	Code string

	// Category is the error type (disposal, compute, cycle, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the source code location where the error occurred,
	// usually the creation site of the offending node.
	Location *Location

	// Context contains surrounding source code lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RippleError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RippleError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds source location to the error.
func (e *RippleError) WithLocation(file string, line, column int) *RippleError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithCallSite parses a "file:line" call site, as the runtime records for
// node creation when call-site capture is enabled, into the error location.
func (e *RippleError) WithCallSite(site string) *RippleError {
	if site == "" {
		return e
	}
	idx := strings.LastIndex(site, ":")
	if idx <= 0 {
		return e
	}
	line, err := strconv.Atoi(site[idx+1:])
	if err != nil || line <= 0 {
		return e
	}
	file := site[:idx]
	e.Location = &Location{File: file, Line: line}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RippleError) WithSuggestion(s string) *RippleError {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *RippleError) WithExample(ex string) *RippleError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *RippleError) WithDetail(d string) *RippleError {
	e.Detail = d
	return e
}

// WithContext adds custom context lines to the error.
func (e *RippleError) WithContext(lines []string) *RippleError {
	e.Context = lines
	return e
}

// Wrap wraps another error.
func (e *RippleError) Wrap(err error) *RippleError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a RippleError from a registered error code.
func New(code string) *RippleError {
	template, ok := registry[code]
	if !ok {
		return &RippleError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &RippleError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new RippleError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *RippleError {
	return &RippleError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a RippleError.
func FromError(err error, code string) *RippleError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*RippleError); ok {
		return re
	}
	return New(code).Wrap(err)
}
