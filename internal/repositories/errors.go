package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist, or that a
	// guarded write (e.g. a refresh-token swap) matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the write would violate a uniqueness constraint,
	// such as a duplicate email or username.
	ErrConflict = errors.New("record conflict")
)
