package domain

import (
	"errors"
	"fmt"
)

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a transport-level failure talking to the vendor API.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates a missing token or a rejected sign-in.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrVendorRejected indicates the vendor answered, but P_ERROR_MESSAGE reported a failure.
// Message is the vendor text, surfaced verbatim.
type ErrVendorRejected struct {
	Operation string
	Message   string
}

func (e *ErrVendorRejected) Error() string {
	return fmt.Sprintf("vendor rejected %s: %s", e.Operation, e.Message)
}

// OpBundleSave names the bundle write in ErrVendorRejected.
const OpBundleSave = "bundle save"

// UserMessage is the text returned to the browser.
func (e *ErrVendorRejected) UserMessage() string {
	if e.Operation == OpBundleSave {
		return "Failed to save bundle: " + e.Message
	}
	return fmt.Sprintf("The vendor rejected the %s: %s", e.Operation, e.Message)
}

// ErrInvalidTransition indicates an auth state machine event that is not allowed in the current state.
type ErrInvalidTransition struct {
	From  AuthState
	Event AuthEvent
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid auth transition: %s on %s", e.Event, e.From)
}

// IsUnauthorized reports whether err carries an ErrUnauthorized.
func IsUnauthorized(err error) bool {
	var u *ErrUnauthorized
	return errors.As(err, &u)
}
