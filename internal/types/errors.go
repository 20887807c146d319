package types

import "errors"

// Sentinel errors. Operations wrap them with context using %w so callers
// can match with errors.Is.
var (
	// ErrValidation means a required field is missing or a value is out of range.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means the referenced id is not in the collection.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition means the lifecycle policy rejected a status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPersistence means the persistence adapter call failed.
	ErrPersistence = errors.New("persistence failed")
)
