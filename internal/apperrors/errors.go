// Package apperrors holds the error kinds surfaced by the marketplace workflows.
// Callers match them with errors.Is; wrapped kinds also match their parent.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrForbidden           = errors.New("forbidden")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrValidation          = errors.New("validation failed")
	ErrAlreadyExists       = errors.New("already exists")
	ErrUnauthorized        = errors.New("unauthorized")

	ErrAlreadyReviewed = fmt.Errorf("request already reviewed: %w", ErrInvalidTransition)
	ErrProductNotFound = fmt.Errorf("product not found: %w", ErrValidation)
)

// ValidationError is an ErrValidation with a reason safe to show to clients.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
