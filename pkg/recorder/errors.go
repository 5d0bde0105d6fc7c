package recorder

import (
	"errors"
	"fmt"

	"github.com/entrhq/replay/pkg/types"
)

// ErrSessionNotFound is returned for unknown session ids. It is distinct
// from state-conflict errors so callers can tell "never existed" apart from
// "wrong state".
var ErrSessionNotFound = errors.New("recording session not found")

// StateError rejects an operation that is illegal in the session's current
// lifecycle state. The session is left unchanged.
type StateError struct {
	// Op names the rejected operation.
	Op string

	// Status is the state the session was actually in.
	Status types.RecordingStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s: session is %s", e.Op, e.Status)
}

// StepLimitError rejects a step once the configured ceiling is reached.
// The step list is left unchanged.
type StepLimitError struct {
	// Max is the configured step ceiling.
	Max int
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("cannot add step: session reached the configured limit of %d steps", e.Max)
}

// IsStateConflict reports whether err is a synchronous state rejection
// (wrong lifecycle state or step ceiling) rather than a resource or
// not-found failure.
func IsStateConflict(err error) bool {
	var stateErr *StateError
	var limitErr *StepLimitError
	return errors.As(err, &stateErr) || errors.As(err, &limitErr)
}
