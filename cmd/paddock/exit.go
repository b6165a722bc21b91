package main

import (
	"errors"

	"paddock/internal/review"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitNoMatches = 2
)

// exitCode maps a command error to the process exit status. Invalid
// arguments, unknown ids and already-resolved matches all exit 1; a filter
// that selected nothing exits 2.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, review.ErrNoMatches):
		return exitNoMatches
	default:
		return exitFailure
	}
}
