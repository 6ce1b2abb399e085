// Package models defines the records produced by a measurement cycle.
package models

import (
	"time"
)

// DistractionEvent is the event type of a single distraction (about a third
// of a turn of the distractor rod).
const DistractionEvent = "D"

// Session is one run of the application.
type Session struct {
	StartedAt time.Time `json:"started_at"`
	ID        string    `json:"id"`
	Version   string    `json:"version"`
}

// Patient is a pseudonymised patient identifier.
type Patient struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// SensorInfo describes a connected torque sensor.
type SensorInfo struct {
	SerialNumber string `json:"serial_number"`
	Name         string `json:"name"`
	// TurnsInFullTurn is the number of distraction events that make up one
	// full turn of the distractor.
	TurnsInFullTurn float64 `json:"turns_in_full_turn"`
}

// DistractorInfo is a distractor model and its displacement per full turn.
type DistractorInfo struct {
	Type                    string  `json:"type"`
	DisplacementPerFullTurn float64 `json:"displacement_mm_per_full_turn"`
}

const (
	KLSArnaud = "KLS Martin Arnaud"
	KLSRed    = "KLS Martin RED"
)

// Distractors lists the supported distractor models.
var Distractors = []DistractorInfo{
	{Type: KLSArnaud, DisplacementPerFullTurn: 1.0},
	{Type: KLSRed, DisplacementPerFullTurn: 0.5},
}

// LookupDistractor returns the distractor model with the given type name.
func LookupDistractor(typ string) (DistractorInfo, bool) {
	for _, d := range Distractors {
		if d.Type == typ {
			return d, true
		}
	}

	return DistractorInfo{}, false
}

// Document is the record of one measurement cycle for one distractor.
type Document struct {
	StartedAt       time.Time `json:"started_at"`
	Notes           *string   `json:"notes"`
	FullTurnCount   *float64  `json:"full_turn_count"`
	PlanFollowed    *bool     `json:"plan_followed"`
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	PatientID       string    `json:"patient_id"`
	SensorSerial    string    `json:"sensor_serial_number"`
	DistractorType  string    `json:"distractor_type"`
	Operator        string    `json:"operator"`
	DistractorIndex int       `json:"distractor_index"`
	// Completed is set once notes have been recorded.
	Completed bool `json:"completed"`
	// Finalized is set when the operator confirms the document. A finalized
	// document is never mutated again.
	Finalized bool `json:"finalized"`
}

// Measurement is a single torque sample of a document.
type Measurement struct {
	DocumentID string `json:"document_id"`
	// Time is the number of seconds since the start of data collection.
	Time float64 `json:"time_s"`
	// Torque is in newton metres.
	Torque float64 `json:"torque_nm"`
}

// AnnotatedEvent marks the interval of one distraction event within the
// samples of a document.
type AnnotatedEvent struct {
	DocumentID string  `json:"document_id"`
	EventType  string  `json:"event_type"`
	Index      int     `json:"event_num"`
	Begin      float64 `json:"event_begin"`
	End        float64 `json:"event_end"`
	// AnnotationDone is false while the event is only a placeholder.
	AnnotationDone bool `json:"annotation_done"`
	// Recorded is false when the event happened but the operator failed to
	// record it.
	Recorded bool `json:"recorded"`
}
