package check

import (
	"errors"
	"fmt"
)

// Failure categories the pipeline surfaces. The handler maps each onto an
// HTTP status; everything unrecognized becomes a generic 500.
var (
	// ErrNoEvidence means extraction produced no usable findings. The
	// caller must resubmit with different text; nothing was persisted.
	ErrNoEvidence = errors.New("no evidence found in the provided symptom description")
	// ErrUpstreamAuth means the reasoning service rejected the configured
	// credentials. This is an operator fault, not a caller fault.
	ErrUpstreamAuth = errors.New("clinical reasoning service rejected credentials")
	// ErrNotFound is returned by lookups and deletes for unknown record ids.
	ErrNotFound = errors.New("symptom check record not found")
)

// ValidationError rejects a request before any remote call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RateLimitedError passes the upstream's own rate-limit message through to
// the caller verbatim so it can back off accordingly.
type RateLimitedError struct {
	Message string
}

func (e *RateLimitedError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded, please retry later"
	}
	return e.Message
}

// PersistenceError means the record store write or read failed. The
// underlying cause is logged, never shown to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
