package domain

import "errors"

// Sentinel errors for the metadata store - match with errors.Is().
var (
	// ErrNotFound indicates a referenced file or folder does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPath indicates a traversal attempt or malformed path.
	ErrInvalidPath = errors.New("invalid path")

	// ErrConflict indicates a duplicate sibling name on create or rename.
	ErrConflict = errors.New("already exists")

	// ErrValidation indicates invalid request input.
	ErrValidation = errors.New("validation failed")

	// ErrTransportUnavailable indicates the real-time channel or the
	// external byte transport is unreachable. Never fatal to a mutation.
	ErrTransportUnavailable = errors.New("transport unavailable")
)
