package engine

import (
	"errors"
	"fmt"
)

// CommandError reports a command that cannot be executed as written:
// an unknown op or a missing argument. Nothing is journaled for it.
type CommandError struct {
	// Op is the command's op, as given.
	Op string

	// Field names the offending argument, if any.
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s command: %s: %s", e.Op, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s command: %s", e.Op, e.Message)
}

// IsCommandError returns true if err is a *CommandError.
// Uses errors.As to handle wrapped errors.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// ReplayMismatchError is returned by Replay when a re-executed command does
// not reproduce the journaled outcome.
type ReplayMismatchError struct {
	Mismatches []Mismatch
}

// Error implements the error interface.
func (e *ReplayMismatchError) Error() string {
	if len(e.Mismatches) == 1 {
		return fmt.Sprintf("replay diverged at seq %d", e.Mismatches[0].Seq)
	}
	return fmt.Sprintf("replay diverged at %d entries (first seq %d)",
		len(e.Mismatches), e.Mismatches[0].Seq)
}

// IsReplayMismatch returns true if err is a *ReplayMismatchError.
func IsReplayMismatch(err error) bool {
	var me *ReplayMismatchError
	return errors.As(err, &me)
}
