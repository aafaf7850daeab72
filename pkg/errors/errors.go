// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Warden.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies Warden errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeRejected indicates an action was disallowed by policy or state;
	// the caller must not proceed.
	CodeRejected ErrorCode = "REJECTED"

	// CodeViolation indicates a governance rule was broken or bypassed.
	// Violations are never recoverable silently.
	CodeViolation ErrorCode = "VIOLATION"

	// CodeLimitBreach indicates a quantitative budget threshold was crossed.
	CodeLimitBreach ErrorCode = "LIMIT_BREACH"

	// CodeStructural indicates an attempted state transition violates a
	// structural invariant.
	CodeStructural ErrorCode = "STRUCTURAL_TRANSITION"

	// CodeConfig indicates a configuration error (unknown action kind,
	// corrupted state history). Fatal, distinct from runtime violations.
	CodeConfig ErrorCode = "CONFIGURATION_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeHalted indicates an execution is halted and requires a logged
	// resolution before it can continue.
	CodeHalted ErrorCode = "HALTED"
)

// WardenError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type WardenError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
}

// Error implements the error interface.
func (e *WardenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *WardenError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *WardenError) MarshalJSON() ([]byte, error) {
	type Alias WardenError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new WardenError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *WardenError {
	return &WardenError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *WardenError) WithContext(key string, value interface{}) *WardenError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *WardenError) WithAttribute(key, value string) *WardenError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *WardenError) WithRecoverable(recoverable bool) *WardenError {
	e.Recoverable = recoverable
	return e
}

// AsWardenError attempts to convert an error to a WardenError.
// Returns the error as WardenError if it is one, or wraps it otherwise.
func AsWardenError(err error) *WardenError {
	if err == nil {
		return nil
	}
	if we, ok := err.(*WardenError); ok {
		return we
	}
	return New(CodeInternal, "wrapped error", err)
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *WardenError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}
