package mission

import (
	"fmt"

	"github.com/actabi/FreelanceAcademy/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist. It is an
// expected outcome and is never logged as an error.
var ErrNotFound = fmt.Errorf("mission not found")

// ValidationError wraps a user-facing validation message. InvalidIDs lists
// referenced skill ids that could not be resolved, when applicable.
type ValidationError struct {
	Msg        string
	InvalidIDs []string
}

func (e *ValidationError) Error() string {
	if len(e.InvalidIDs) > 0 {
		return fmt.Sprintf("%s: %v", e.Msg, e.InvalidIDs)
	}
	return e.Msg
}

// InvalidTransitionError is returned when the state machine rejects a
// lifecycle transition.
type InvalidTransitionError struct {
	From model.MissionStatus
	To   model.MissionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition %s → %s is not allowed", e.From, e.To)
}

// IntegrationError wraps a failure from the external channel. It is surfaced
// from Publish (hard failure) and swallowed-and-logged on the update path.
type IntegrationError struct {
	Op  string
	Err error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("discord %s: %v", e.Op, e.Err)
}

func (e *IntegrationError) Unwrap() error { return e.Err }
