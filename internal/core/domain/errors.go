package domain

import (
	"errors"
	"fmt"
)

// ValidationError marks client-side input errors. Callers map it to a 400
// response and never retry.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func Invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError wraps persistence failures. Callers map it to a 500 response
// and may retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// RelayConnectionError marks a failure to establish or keep the live
// connection. Non-fatal: the session degrades to history-only mode.
type RelayConnectionError struct {
	Err error
}

func (e *RelayConnectionError) Error() string { return "relay connection: " + e.Err.Error() }

func (e *RelayConnectionError) Unwrap() error { return e.Err }
