package services

import "errors"

var (
	// ErrInvalidTransition is returned when an operation is attempted from a
	// state that does not permit it.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrConflict is returned when an operation would violate a uniqueness
	// rule, e.g. settling a damage report twice.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned for bad operation input.
	ErrValidation = errors.New("validation error")
)
