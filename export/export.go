// Package export writes the stored rows of a document to CSV or XLSX files
// for analysis outside cranio.
package export

import (
	"strconv"
	"time"

	"github.com/ayoisaiah/cranio/internal/apperr"
	"github.com/ayoisaiah/cranio/internal/models"
	"github.com/ayoisaiah/cranio/store"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var errUnknownFormat = &apperr.Error{
	Message: "unknown export format %q (must be csv or xlsx)",
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	}

	return "", errUnknownFormat.Fmt(s)
}

// Bundle is a document together with its events and samples.
type Bundle struct {
	Document     models.Document
	Events       []models.AnnotatedEvent
	Measurements []models.Measurement
}

// Load reads everything recorded for a document.
func Load(db store.DB, documentID string) (*Bundle, error) {
	doc, err := db.GetDocument(documentID)
	if err != nil {
		return nil, err
	}

	events, err := db.GetEvents(documentID)
	if err != nil {
		return nil, err
	}

	samples, err := db.GetMeasurements(documentID)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Document:     *doc,
		Events:       events,
		Measurements: samples,
	}, nil
}

// table is a header row followed by data rows.
type table struct {
	name   string
	header []string
	rows   [][]any
}

func optional[T any](v *T) any {
	if v == nil {
		return ""
	}

	return *v
}

func (b *Bundle) tables() []table {
	d := b.Document

	doc := table{
		name: "dim_document",
		header: []string{
			"document_id", "session_id", "patient_id", "sensor_serial_number",
			"distractor_number", "distractor_type", "started_at", "operator",
			"notes", "full_turn_count", "distraction_plan_followed",
			"completed", "finalized",
		},
		rows: [][]any{{
			d.ID, d.SessionID, d.PatientID, d.SensorSerial,
			d.DistractorIndex, d.DistractorType,
			d.StartedAt.UTC().Format(time.RFC3339Nano), d.Operator,
			optional(d.Notes), optional(d.FullTurnCount), optional(d.PlanFollowed),
			d.Completed, d.Finalized,
		}},
	}

	events := table{
		name: "fact_annotated_event",
		header: []string{
			"document_id", "event_type", "event_num", "event_begin",
			"event_end", "annotation_done", "recorded",
		},
		rows: make([][]any, 0, len(b.Events)),
	}

	for _, e := range b.Events {
		events.rows = append(events.rows, []any{
			e.DocumentID, e.EventType, e.Index, e.Begin, e.End,
			e.AnnotationDone, e.Recorded,
		})
	}

	samples := table{
		name:   "fact_measurement",
		header: []string{"document_id", "time_s", "torque_Nm"},
		rows:   make([][]any, 0, len(b.Measurements)),
	}

	for _, m := range b.Measurements {
		samples.rows = append(samples.rows, []any{m.DocumentID, m.Time, m.Torque})
	}

	return []table{doc, events, samples}
}

// text renders a cell the same way in every format.
func text(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}

	return ""
}
