package interfaces

import "errors"

// Sentinel errors shared by all repository backends
var (
	// ErrNotFound means no record exists for the given key
	ErrNotFound = errors.New("record not found")

	// ErrPreconditionFailed means a conditional transition found the entry
	// in a status outside the allowed set. The stored row is unchanged.
	ErrPreconditionFailed = errors.New("entry not in required status")
)
