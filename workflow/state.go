package workflow

import (
	"maps"
	"slices"

	"github.com/ayoisaiah/cranio/internal/models"
)

// State is a step of the recording cycle.
type State string

const (
	Initial        State = "Initial"
	Measurement    State = "Measurement"
	EventDetection State = "EventDetection"
	Note           State = "Note"
	AreYouSure     State = "AreYouSure"
)

// Trigger is a discrete user intent or sensor signal.
type Trigger string

const (
	Start            Trigger = "start"
	Stop             Trigger = "stop"
	Ok               Trigger = "ok"
	Yes              Trigger = "yes"
	No               Trigger = "no"
	Back             Trigger = "back"
	AddEvent         Trigger = "add-event"
	RemoveEvent      Trigger = "remove-event"
	EditEvent        Trigger = "edit-event"
	FlagEvent        Trigger = "flag-event"
	SelectPatient    Trigger = "select-patient"
	SelectDistractor Trigger = "select-distractor"
	SetOperator      Trigger = "set-operator"
	ConnectSensor    Trigger = "connect-sensor"
	DisconnectSensor Trigger = "disconnect-sensor"
	SensorLost       Trigger = "sensor-lost"
	SkipEvents       Trigger = "skip-events"
	ChangeSession    Trigger = "change-session"
)

// NoteDraft holds what the operator entered at the notes step.
type NoteDraft struct {
	FullTurnCount *float64
	PlanFollowed  *bool
	Notes         string
}

// Input is a trigger together with the payload it carries. Only the fields
// relevant to the trigger are read.
type Input struct {
	Err      error
	Note     NoteDraft
	Trigger  Trigger
	Patient  string
	Operator string
	// SessionID names the earlier session to continue for ChangeSession.
	SessionID  string
	Sensor     models.SensorInfo
	Distractor int
	// Count is the number of placeholders for AddEvent. Zero means the
	// configured default.
	Count int
	// Index is the event index for RemoveEvent, EditEvent and FlagEvent.
	Index          int
	Begin          float64
	End            float64
	AnnotationDone bool
	Recorded       bool
}

type transition struct {
	guard  func(m *Machine, in Input) error
	effect func(m *Machine, in Input) error
	// to is empty for self transitions.
	to State
}

var table = map[State]map[Trigger]transition{
	Initial: {
		Start: {
			to:     Measurement,
			guard:  (*Machine).canStart,
			effect: (*Machine).startMeasurement,
		},
		SelectPatient: {
			guard:  validPatient,
			effect: (*Machine).selectPatient,
		},
		SelectDistractor: {
			guard:  (*Machine).validDistractor,
			effect: (*Machine).selectDistractor,
		},
		SetOperator: {
			effect: (*Machine).setOperator,
		},
		ConnectSensor: {
			guard:  validSensor,
			effect: (*Machine).connectSensor,
		},
		DisconnectSensor: {
			effect: (*Machine).disconnectSensor,
		},
		ChangeSession: {
			guard:  (*Machine).sessionExists,
			effect: (*Machine).changeSession,
		},
	},
	Measurement: {
		Stop: {
			to:     EventDetection,
			effect: (*Machine).stopMeasurement,
		},
		ConnectSensor: {
			guard:  (*Machine).canReconnect,
			effect: (*Machine).connectSensor,
		},
	},
	EventDetection: {
		Ok: {
			to:     Note,
			effect: (*Machine).saveEvents,
		},
		AddEvent: {
			guard:  validCount,
			effect: (*Machine).addEvents,
		},
		RemoveEvent: {
			guard:  (*Machine).canRemoveEvent,
			effect: (*Machine).removeEvent,
		},
		EditEvent: {
			guard:  (*Machine).canEditEvent,
			effect: (*Machine).editEvent,
		},
		FlagEvent: {
			guard:  (*Machine).eventExists,
			effect: (*Machine).flagEvent,
		},
		SkipEvents: {
			to:     Initial,
			effect: (*Machine).skipEvents,
		},
	},
	Note: {
		Ok: {
			to:     AreYouSure,
			effect: (*Machine).writeNotes,
		},
		Back: {
			to:     EventDetection,
			effect: (*Machine).discardEvents,
		},
	},
	AreYouSure: {
		Yes: {
			to:     Initial,
			effect: (*Machine).finalize,
		},
		No: {
			to: Note,
		},
	},
}

func init() {
	// a lost sensor is reported wherever the machine happens to be
	for s := range table {
		table[s][SensorLost] = transition{
			effect: (*Machine).sensorLost,
		}
	}
}

// Next returns the state that trigger t leads to from s, and whether the
// transition exists at all. Guards are not evaluated.
func Next(s State, t Trigger) (State, bool) {
	row, ok := table[s][t]
	if !ok {
		return s, false
	}

	if row.to == "" {
		return s, true
	}

	return row.to, true
}

// Triggers returns the triggers accepted in state s, sorted by name.
func Triggers(s State) []Trigger {
	return slices.Sorted(maps.Keys(table[s]))
}
