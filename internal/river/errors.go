package river

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionInvalid is returned when a required global was not bound
	ErrSessionInvalid = errors.New("river session is invalid")
	// ErrResolutionFailed is returned when an output identifier has no wl_output
	ErrResolutionFailed = errors.New("output could not be resolved")
	// ErrNoSeat is returned for seat-scoped operations on a session without a seat
	ErrNoSeat = errors.New("no seat bound")
	// ErrNoArguments is returned when submitting an empty command
	ErrNoArguments = errors.New("command has no arguments")
	// ErrClosed is returned after the session was closed
	ErrClosed = errors.New("river session is closed")
)

// CommandError carries the compositor's diagnostic for a rejected command
type CommandError struct {
	Diagnostic string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command failed: %s", e.Diagnostic)
}
