package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrNotUpdated is returned when a conditional update matched no row
	ErrNotUpdated = errors.New("record not updated")
)
