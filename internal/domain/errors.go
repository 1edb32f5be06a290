package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrWalletNotFound is returned when a wallet does not exist
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrProjectNotFound is returned when a project does not exist
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvoiceNotFound is returned when a payment invoice does not exist
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrTaskNotFound is returned when a recommendation task does not exist
	ErrTaskNotFound = errors.New("task not found")

	// ErrAccessDenied is returned when the privacy gate denies a data request
	ErrAccessDenied = errors.New("access denied")

	// ErrPaymentRequired is returned when monetizable data is requested unpaid
	ErrPaymentRequired = errors.New("payment required")

	// ErrInsufficientBalance is returned when a withdrawal exceeds pending earnings
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUpstreamUnavailable is returned when the payment gateway or indexer
	// data cannot be reached. Treated as retryable by callers.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ValidationError reports a bad enum, range, or missing field. It always maps
// to a 4xx response with the field detail included.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
