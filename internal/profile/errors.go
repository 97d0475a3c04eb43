package profile

import "errors"

var (
	// ErrNotFound indicates a missing resume or skill, or an empty collection
	// where one is required.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyRefined indicates the one-shot refine was already consumed.
	ErrAlreadyRefined = errors.New("profile already refined")
)
