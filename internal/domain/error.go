package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	ErrAlreadyCancelled  = errors.New("entitlement already cancelled or refunded")
	ErrNotDeleted        = errors.New("entitlement is not soft-deleted")
	ErrPlanUnavailable   = errors.New("plan or service is unavailable")
	ErrRequestNotPending = errors.New("request is not pending")
	ErrDuplicateOrder    = errors.New("order id already correlated to an entitlement")
	ErrLockHeld          = errors.New("lock is held by another process")
)

// FieldError describes a single malformed input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries a structured field-error list. It is never retried;
// the web layer renders it as a 400 with the field list intact.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// ConflictError is surfaced distinctly from validation so callers can offer a
// "withdraw and resubmit" affordance for duplicate pending requests.
type ConflictError struct {
	Resource    string
	ExistingID  string
	CanWithdraw bool
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s (existing id %s)", e.Resource, e.ExistingID)
}

// ExternalServiceError wraps a failure from a collaborator (payment gateway,
// coupon validator). It is fatal to the operation that triggered it.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
