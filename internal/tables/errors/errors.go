package errors

import "errors"

var (
	ErrNotFound = errors.New("table not found")

	ErrInvalidID = errors.New("invalid table ID format")

	// ErrStateConflict signals a lost compare-and-swap: the table's state
	// changed between read and write.
	ErrStateConflict = errors.New("table state changed concurrently")
)
