// Package domain contains the curator's core entities and their invariants.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced crawler, run, item, post or keyword does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict is returned when a create violates a uniqueness constraint.
	ErrConflict = errors.New("entity already exists")
	// ErrCrawlerInactive is returned when a run is requested for a disabled crawler.
	ErrCrawlerInactive = errors.New("crawler is not active")
	// ErrInvalidTransition is returned when a run is moved to a state its current state does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ValidationError reports malformed or out-of-range input for one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError builds a *ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AsValidationError unwraps err into a *ValidationError when it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
