package sqlstore

import (
	"time"

	"github.com/ayoisaiah/cranio/internal/models"
)

type sessionRow struct {
	StartedAt time.Time
	SessionID string `gorm:"primaryKey"`
	SwVersion string
}

func (sessionRow) TableName() string { return "dim_session" }

func (r *sessionRow) model() models.Session {
	return models.Session{
		ID:        r.SessionID,
		StartedAt: r.StartedAt.UTC(),
		Version:   r.SwVersion,
	}
}

type patientRow struct {
	CreatedAt time.Time
	PatientID string `gorm:"primaryKey"`
}

func (patientRow) TableName() string { return "dim_patient" }

type sensorRow struct {
	SensorSerialNumber string `gorm:"primaryKey"`
	SensorName         string
	TurnsInFullTurn    float64
}

func (sensorRow) TableName() string { return "dim_hw_sensor" }

type distractorRow struct {
	DistractorType            string `gorm:"primaryKey"`
	DisplacementMmPerFullTurn float64
}

func (distractorRow) TableName() string { return "dim_hw_distractor_lookup" }

type eventTypeRow struct {
	EventType            string `gorm:"primaryKey"`
	EventTypeDescription string
}

func (eventTypeRow) TableName() string { return "dim_event_type_lookup" }

type documentRow struct {
	StartedAt          time.Time `gorm:"index"`
	Notes              *string
	FullTurnCount      *float64
	PlanFollowed       *bool
	DocumentID         string `gorm:"primaryKey"`
	SessionID          string `gorm:"not null"`
	PatientID          string `gorm:"not null;index"`
	SensorSerialNumber string
	DistractorType     string
	Operator           string
	DistractorNumber   int
	Completed          bool
	Finalized          bool
}

func (documentRow) TableName() string { return "dim_document" }

type eventRow struct {
	DocumentID     string `gorm:"primaryKey"`
	EventType      string `gorm:"primaryKey"`
	EventNum       int    `gorm:"primaryKey"`
	EventBegin     float64
	EventEnd       float64
	AnnotationDone bool
	Recorded       bool
}

func (eventRow) TableName() string { return "fact_annotated_event" }

type measurementRow struct {
	DocumentID    string `gorm:"not null;index"`
	MeasurementID uint   `gorm:"primaryKey;autoIncrement"`
	TimeS         float64
	TorqueNm      float64 `gorm:"column:torque_nm"`
}

func (measurementRow) TableName() string { return "fact_measurement" }

func toDocumentRow(d *models.Document) documentRow {
	return documentRow{
		DocumentID:         d.ID,
		SessionID:          d.SessionID,
		PatientID:          d.PatientID,
		SensorSerialNumber: d.SensorSerial,
		DistractorNumber:   d.DistractorIndex,
		DistractorType:     d.DistractorType,
		StartedAt:          d.StartedAt,
		Operator:           d.Operator,
		Notes:              d.Notes,
		FullTurnCount:      d.FullTurnCount,
		PlanFollowed:       d.PlanFollowed,
		Completed:          d.Completed,
		Finalized:          d.Finalized,
	}
}

func (r *documentRow) model() models.Document {
	return models.Document{
		ID:              r.DocumentID,
		SessionID:       r.SessionID,
		PatientID:       r.PatientID,
		SensorSerial:    r.SensorSerialNumber,
		DistractorIndex: r.DistractorNumber,
		DistractorType:  r.DistractorType,
		StartedAt:       r.StartedAt.UTC(),
		Operator:        r.Operator,
		Notes:           r.Notes,
		FullTurnCount:   r.FullTurnCount,
		PlanFollowed:    r.PlanFollowed,
		Completed:       r.Completed,
		Finalized:       r.Finalized,
	}
}
