package errors

import (
	"errors"
	"fmt"
)

// Application-specific errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource conflict")
	ErrRateLimit          = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrNotImplemented     = errors.New("not implemented")
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) match any validation failure.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error `json:"errors"`
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Add adds an error to the MultiError
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns nil when nothing was collected
func (e *MultiError) ErrorOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return *e
}

// NetworkError is returned when the upstream weather backend could not be
// reached at all: the request was rejected by the transport or timed out.
type NetworkError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("network timeout during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

// Is reports timeouts as ErrTimeout so callers can tell them apart from
// other transport failures.
func (e NetworkError) Is(target error) bool {
	return e.Timeout && target == ErrTimeout
}

// BackendError is returned when the upstream answered with a non-2xx status
// or with a body that could not be decoded.
type BackendError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend error during %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("backend error during %s: status %d", e.Op, e.StatusCode)
}

func (e BackendError) Unwrap() error {
	return e.Err
}

// DatabaseError represents a database-related error
type DatabaseError struct {
	Operation string
	Err       error
}

func (e DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

func (e DatabaseError) Unwrap() error {
	return e.Err
}

// PipelineError represents a pipeline-related error
type PipelineError struct {
	Source string
	Stage  string
	Err    error
}

func (e PipelineError) Error() string {
	return fmt.Sprintf("pipeline error in %s at stage %s: %v", e.Source, e.Stage, e.Err)
}

func (e PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether an operation that failed with err may succeed
// when the user tries again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var beErr BackendError
	if errors.As(err, &beErr) {
		return beErr.StatusCode == 0 || beErr.StatusCode >= 500 || beErr.StatusCode == 429
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimit)
}
