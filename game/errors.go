// Package game holds the sentinel errors shared by the QuestForge services.
// Services wrap them with context (fmt.Errorf("...: %w", game.ErrNotFound))
// and the REST layer maps them to status codes with errors.Is.
package game

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a write collides with existing state.
	ErrConflict = errors.New("conflict")
	// ErrValidation is returned for input that is well-formed but not acceptable.
	ErrValidation = errors.New("validation failed")
)
