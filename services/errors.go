package services

import "errors"

// Error taxonomy for the matchmaking core. Handlers map these onto the
// response envelope; everything else is treated as an internal error.
var (
	// ErrValidation rejects bad or missing input before any state mutation.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound covers unknown users and rooms. Surfaced to the caller,
	// never retried.
	ErrNotFound = errors.New("not found")

	// ErrGeneration aborts competition creation for a pairing. The rooms
	// stay MATCHED; the failure is reported, not retried.
	ErrGeneration = errors.New("content generation failed")
)
