package forge

import (
	"errors"
	"fmt"
)

// ErrorCode classifies errors raised by the engine itself.
type ErrorCode string

const (
	// ErrCodeValidation indicates invalid call arguments.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeConfiguration indicates missing or inconsistent factory setup.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
)

// Sentinel errors for errors.Is matching by code.
var (
	ErrValidation    = &Error{Code: ErrCodeValidation}
	ErrConfiguration = &Error{Code: ErrCodeConfiguration}
)

// Messages surfaced to callers.
const (
	msgBatchSize      = "Batch size must be a non-negative integer"
	msgEmptyGenerator = "Cannot create generator from empty iterable"
	msgNoAdapter      = "No persistence adapter configured. Call persist() first."
)

// Error is a structured engine error. Errors returned by blueprints, hooks and
// persistence adapters are never wrapped in an Error.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func validationError(message string, context map[string]any) *Error {
	return &Error{Code: ErrCodeValidation, Message: message, Context: context}
}

func configurationError(message string, context map[string]any) *Error {
	return &Error{Code: ErrCodeConfiguration, Message: message, Context: context}
}
