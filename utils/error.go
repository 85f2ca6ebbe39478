package utils

import (
	"errors"
	"strings"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError is a business-rule violation. Problems carries the per-item
// messages of a batch operation (multi-IMEI scan); a single-cause failure leaves
// it empty and uses Message alone.
type ValidationError struct {
	Message  string
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) > 0 {
		return e.Message + ": " + strings.Join(e.Problems, "; ")
	}
	return e.Message
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func NewAggregateValidationError(message string, problems []string) *ValidationError {
	return &ValidationError{Message: message, Problems: problems}
}

// AsValidation unwraps err into a *ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ConflictError means a concurrent mutation won the race for a unit's store
// assignment. Unlike ValidationError the caller may retry as-is.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrorRecordNotFound)
}
