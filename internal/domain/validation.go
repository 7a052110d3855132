package domain

import (
	"errors"
	"strings"
)

var (
	// ErrValidation is the sentinel wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrEmptyValue is the sentinel wrapped by every EmptyValueError.
	ErrEmptyValue = errors.New("empty value")
)

// ValidationError carries the human-readable messages of a rejected request.
type ValidationError struct {
	Messages []string
}

// NewValidationError creates a ValidationError with the given messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// EmptyValueError reports a field that was present in an update but empty.
type EmptyValueError struct {
	Field string
}

func (e *EmptyValueError) Error() string {
	return "The " + e.Field + " can not be empty!"
}

func (e *EmptyValueError) Unwrap() error {
	return ErrEmptyValue
}
