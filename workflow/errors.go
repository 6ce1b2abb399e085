package workflow

import (
	"errors"

	"github.com/ayoisaiah/cranio/internal/apperr"
)

// Guard violations. The trigger is rejected and the state is unchanged.
var (
	ErrTriggerNotAllowed = &apperr.Error{
		Message: "%s is not available in the %s step",
	}

	ErrSensorNotConnected = &apperr.Error{
		Message: "no sensor connected: connect a sensor before starting a measurement",
	}

	ErrNoPatient = &apperr.Error{
		Message: "no patient selected: select a patient before starting a measurement",
	}

	ErrNoDistractor = &apperr.Error{
		Message: "no distractor selected: select a distractor before starting a measurement",
	}

	ErrInvalidPatient = &apperr.Error{
		Message: "patient id cannot be empty",
	}

	ErrInvalidDistractor = &apperr.Error{
		Message: "distractor must be between 1 and %d, got %d",
	}

	ErrInvalidSensor = &apperr.Error{
		Message: "sensor has no serial number",
	}

	ErrSensorMismatch = &apperr.Error{
		Message: "sensor %s cannot resume a measurement started with sensor %s",
	}

	ErrNoSuchSession = &apperr.Error{
		Message: "session %q does not exist",
	}

	ErrInvalidCount = &apperr.Error{
		Message: "event count cannot be negative, got %d",
	}

	ErrNoEvents = &apperr.Error{
		Message: "there are no events to remove",
	}

	ErrNoSuchEvent = &apperr.Error{
		Message: "event %d does not exist",
	}

	ErrInvalidBoundaries = &apperr.Error{
		Message: "event begin (%.3f s) must not be after its end (%.3f s)",
	}
)

// Gateway failures. The transition is aborted and nothing held in memory is
// lost, so the operator can retry.
var (
	ErrPersistence = &apperr.Error{
		Message: "unable to save %s",
	}

	ErrSensorLost = &apperr.Error{
		Message: "sensor disconnected",
	}
)

var errQueueClosed = &apperr.Error{
	Message: "workflow is no longer accepting input",
}

var guardViolations = []error{
	ErrTriggerNotAllowed,
	ErrSensorNotConnected,
	ErrNoPatient,
	ErrNoDistractor,
	ErrInvalidPatient,
	ErrInvalidDistractor,
	ErrInvalidSensor,
	ErrSensorMismatch,
	ErrNoSuchSession,
	ErrInvalidCount,
	ErrNoEvents,
	ErrNoSuchEvent,
	ErrInvalidBoundaries,
}

// IsGuardViolation reports whether err is the rejection of a trigger whose
// preconditions were not met.
func IsGuardViolation(err error) bool {
	for _, target := range guardViolations {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// IsRecoverable reports whether err leaves the workflow in a state from which
// the operator can retry without re-entering data.
func IsRecoverable(err error) bool {
	return IsGuardViolation(err) ||
		errors.Is(err, ErrPersistence) ||
		errors.Is(err, ErrSensorLost)
}
