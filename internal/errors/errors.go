// Package errors provides the tagged error type every step reports through.
//
// A step fails with one of two codes: USER ERROR when the input it was given
// is missing, malformed or non-conformant, and INTERNAL ERROR when something
// went wrong that the caller could not have fixed. The code is the first
// token of the rendered message so pipeline logs can be grepped for it.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.CodeUser,
//	    "Failed to read source config file",
//	    readErr,
//	    map[string]any{"path": path},
//	)
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies a step failure.
type Code string

const (
	// CodeUser indicates the caller supplied invalid input.
	CodeUser Code = "USER ERROR"
	// CodeInternal indicates an unexpected condition inside the step.
	CodeInternal Code = "INTERNAL ERROR"
)

// StructuredError carries a Code, a human-readable message, the underlying
// cause and optional debugging context.
type StructuredError struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a StructuredError with the given code and message.
func New(code Code, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a StructuredError with a formatted message.
func Newf(code Code, format string, args ...any) *StructuredError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a code and message.
func Wrap(code Code, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code Code, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the Code of the first StructuredError in err's chain.
// Untagged errors are reported as CodeInternal.
func CodeOf(err error) Code {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}
