package domain

import "errors"

var (
	// ErrNotFound is returned when a target or referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrValidation covers malformed payloads, mismatched identifiers and dangling references.
	ErrValidation = errors.New("validation failed")
	// ErrConflict signals a uniqueness or business-rule violation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState is returned when an action is not permitted given the current entity state.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnauthenticated is returned when no caller identity could be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
