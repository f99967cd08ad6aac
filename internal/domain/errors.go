package domain

import "errors"

var (
	// ErrValidation marks malformed input rejected before dispatch.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a state transition refused because the record
	// already left the expected state.
	ErrConflict = errors.New("conflict")
)
