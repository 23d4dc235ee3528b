// Package errors defines the user-facing errors of the issuelog CLI. Each
// error carries a category, which decides the exit code, and the steps that
// fix the problem.
package errors

import (
	stderrors "errors"
)

// ErrorCategory represents the type of error that occurred.
type ErrorCategory int

const (
	// Argument errors are caused by invalid or missing flags.
	Argument ErrorCategory = iota
	// Configuration errors come from config files, credentials or the
	// repository settings the remote rejected.
	Configuration
	// Prerequisite errors mean a referenced file is missing.
	Prerequisite
	// Runtime errors occur while fetching or writing.
	Runtime
)

var categoryNames = map[ErrorCategory]string{
	Argument:      "Argument Error",
	Configuration: "Configuration Error",
	Prerequisite:  "Prerequisite Error",
	Runtime:       "Runtime Error",
}

func (c ErrorCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Error"
}

// CLIError is a categorized error with remediation steps.
type CLIError struct {
	Category ErrorCategory
	Message  string
	// Remediation lists what the user can do about it, most useful first.
	Remediation []string
	// Usage is the correct invocation, shown for argument errors.
	Usage string
	Cause error
}

func (e *CLIError) Error() string {
	return e.Message
}

// Unwrap exposes Cause to errors.Is and errors.As.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

func newError(category ErrorCategory, message string, remediation []string) *CLIError {
	return &CLIError{Category: category, Message: message, Remediation: remediation}
}

// NewArgumentError creates an argument error.
func NewArgumentError(message string, remediation ...string) *CLIError {
	return newError(Argument, message, remediation)
}

// NewArgumentErrorWithUsage creates an argument error that shows the
// correct invocation.
func NewArgumentErrorWithUsage(message, usage string, remediation ...string) *CLIError {
	e := newError(Argument, message, remediation)
	e.Usage = usage
	return e
}

// NewPrerequisiteError creates a prerequisite error.
func NewPrerequisiteError(message string, remediation ...string) *CLIError {
	return newError(Prerequisite, message, remediation)
}

// Wrap categorizes err, keeping its message. A nil err yields nil.
func Wrap(err error, category ErrorCategory, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	e := newError(category, err.Error(), remediation)
	e.Cause = err
	return e
}

// WrapWithMessage categorizes err under message; the result reads
// "message: err". A nil err yields nil.
func WrapWithMessage(err error, category ErrorCategory, message string, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	e := newError(category, message+": "+err.Error(), remediation)
	e.Cause = err
	return e
}

// IsCLIError reports whether err is, or wraps, a CLIError.
func IsCLIError(err error) bool {
	return AsCLIError(err) != nil
}

// AsCLIError returns the first CLIError in err's chain, or nil.
func AsCLIError(err error) *CLIError {
	var cliErr *CLIError
	if stderrors.As(err, &cliErr) {
		return cliErr
	}
	return nil
}

// Categorize returns the CLIError in err's chain, or wraps err as a
// runtime error when there is none.
func Categorize(err error) *CLIError {
	if err == nil {
		return nil
	}
	if cliErr := AsCLIError(err); cliErr != nil {
		return cliErr
	}
	return Wrap(err, Runtime)
}
