// Package errors provides custom error types for the tally system.
// These errors enable programmatic error checking across the reconciliation
// pipeline and the job tracker, in particular the split between transient
// failures (retried) and non-transient failures (terminal).
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
var As = errors.As

// Common sentinel errors for the tally system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedInput indicates a line item that fails schema validation.
	// Jobs hitting this error fail immediately and are never retried.
	ErrMalformedInput = errors.New("malformed input")

	// ErrTransient indicates a temporary collaborator failure that is
	// safe to retry with backoff
	ErrTransient = errors.New("transient failure")

	// ErrTimeout indicates that a boundary operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrJobActive indicates another non-terminal job exists for the
	// same bill/ledger input pair
	ErrJobActive = errors.New("job already active for input pair")

	// ErrJobTerminal indicates an attempt to transition a job out of a
	// terminal state
	ErrJobTerminal = errors.New("job is terminal")

	// ErrRetriesExhausted indicates the retry budget for a job was spent
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// MalformedInputError identifies the exact line item that failed schema
// validation. It carries the collection side and line reference so a terminal
// failure is reproducible from the diagnostic alone.
type MalformedInputError struct {
	Collection string // "bill" or "ledger"
	Ref        string // source-document or source-record reference
	LineIndex  int
	Field      string
	Message    string
}

// Error implements the error interface
func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s line %d (%s): field %s: %s",
		e.Collection, e.LineIndex, e.Ref, e.Field, e.Message)
}

// Is implements errors.Is support
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput || target == ErrInvalidInput
}

// ConfigError represents a configuration error. Configuration errors are
// rejected at load time, before any job runs.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// TransientError wraps a temporary boundary failure (input fetch or report
// store). The job tracker retries these with exponential backoff.
type TransientError struct {
	Op  string // boundary operation, e.g. "fetch inputs", "store report"
	Err error
}

// Error implements the error interface
func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure during %s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TransientError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

// NewTransientError creates a new TransientError
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

// JobError attaches job identity and attempt number to a pipeline failure.
type JobError struct {
	JobID   string
	Attempt int
	Err     error
}

// Error implements the error interface
func (e *JobError) Error() string {
	return fmt.Sprintf("job %s attempt %d: %v", e.JobID, e.Attempt, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *JobError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err should follow the retry path. Timeouts at
// the collaborator boundary count as transient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}

// Wrap adds context to an error with fmt.Errorf and %w.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
