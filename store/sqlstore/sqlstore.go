// Package sqlstore persists documents in PostgreSQL through gorm. It uses
// the table layout of the clinical database so that existing analysis
// scripts keep working.
package sqlstore

import (
	"errors"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ayoisaiah/cranio/internal/models"
	"github.com/ayoisaiah/cranio/store"
)

const measurementBatchSize = 1000

// Client is a PostgreSQL database client.
type Client struct {
	db *gorm.DB
}

var _ store.DB = (*Client)(nil)

// Open connects to the database described by dsn and migrates the schema.
func Open(dsn string) (*Client, error) {
	slog.Info("connecting to database")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	c := &Client{db: db}

	if err := c.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return c, nil
}

func (c *Client) migrate() error {
	err := c.db.AutoMigrate(
		&sessionRow{},
		&patientRow{},
		&sensorRow{},
		&distractorRow{},
		&eventTypeRow{},
		&documentRow{},
		&eventRow{},
		&measurementRow{},
	)
	if err != nil {
		return err
	}

	distractors := make([]distractorRow, 0, len(models.Distractors))
	for _, d := range models.Distractors {
		distractors = append(distractors, distractorRow{
			DistractorType:            d.Type,
			DisplacementMmPerFullTurn: d.DisplacementPerFullTurn,
		})
	}

	err = c.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&distractors).Error
	if err != nil {
		return err
	}

	return c.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&eventTypeRow{
			EventType:            models.DistractionEvent,
			EventTypeDescription: "Distraction event",
		}).Error
}

func (c *Client) SaveSession(sess *models.Session) error {
	return c.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&sessionRow{
		SessionID: sess.ID,
		StartedAt: sess.StartedAt,
		SwVersion: sess.Version,
	}).Error
}

func (c *Client) SavePatient(p *models.Patient) error {
	return c.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&patientRow{
		PatientID: p.ID,
		CreatedAt: p.CreatedAt,
	}).Error
}

func (c *Client) SaveSensor(info *models.SensorInfo) error {
	return c.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&sensorRow{
		SensorSerialNumber: info.SerialNumber,
		SensorName:         info.Name,
		TurnsInFullTurn:    info.TurnsInFullTurn,
	}).Error
}

func (c *Client) SaveDocument(doc *models.Document) error {
	row := toDocumentRow(doc)

	return c.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (c *Client) SaveEvents(
	documentID string,
	events []models.AnnotatedEvent,
) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("document_id = ?", documentID).
			Delete(&eventRow{}).Error
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		rows := make([]eventRow, 0, len(events))
		for i := range events {
			rows = append(rows, eventRow{
				DocumentID:     documentID,
				EventType:      events[i].EventType,
				EventNum:       events[i].Index,
				EventBegin:     events[i].Begin,
				EventEnd:       events[i].End,
				AnnotationDone: events[i].AnnotationDone,
				Recorded:       events[i].Recorded,
			})
		}

		return tx.Create(&rows).Error
	})
}

func (c *Client) DeleteEvents(documentID string) error {
	return c.db.Where("document_id = ?", documentID).Delete(&eventRow{}).Error
}

func (c *Client) SaveMeasurements(
	documentID string,
	samples []models.Measurement,
) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("document_id = ?", documentID).
			Delete(&measurementRow{}).Error
		if err != nil {
			return err
		}

		if len(samples) == 0 {
			return nil
		}

		rows := make([]measurementRow, 0, len(samples))
		for i := range samples {
			rows = append(rows, measurementRow{
				DocumentID: documentID,
				TimeS:      samples[i].Time,
				TorqueNm:   samples[i].Torque,
			})
		}

		return tx.CreateInBatches(&rows, measurementBatchSize).Error
	})
}

// GetSession returns the session with id, or nil if there is none.
func (c *Client) GetSession(id string) (*models.Session, error) {
	var row sessionRow

	err := c.db.First(&row, "session_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	sess := row.model()

	return &sess, nil
}

func (c *Client) GetSessions() ([]models.Session, error) {
	var rows []sessionRow

	if err := c.db.Order("started_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	sessions := make([]models.Session, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, rows[i].model())
	}

	return sessions, nil
}

func (c *Client) GetPatients() ([]models.Patient, error) {
	var rows []patientRow

	err := c.db.Order("patient_id").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	patients := make([]models.Patient, 0, len(rows))
	for i := range rows {
		patients = append(patients, models.Patient{
			ID:        rows[i].PatientID,
			CreatedAt: rows[i].CreatedAt.UTC(),
		})
	}

	return patients, nil
}

func (c *Client) GetDocuments(
	filter store.DocumentFilter,
) ([]models.Document, error) {
	q := c.db.Order("started_at")

	if filter.PatientID != "" {
		q = q.Where("patient_id = ?", filter.PatientID)
	}

	if !filter.Since.IsZero() {
		q = q.Where("started_at >= ?", filter.Since)
	}

	if !filter.Until.IsZero() {
		q = q.Where("started_at <= ?", filter.Until)
	}

	var rows []documentRow

	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, rows[i].model())
	}

	return docs, nil
}

func (c *Client) GetDocument(id string) (*models.Document, error) {
	var row documentRow

	err := c.db.First(&row, "document_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrDocumentNotFound.Fmt(id)
	}

	if err != nil {
		return nil, err
	}

	doc := row.model()

	return &doc, nil
}

func (c *Client) GetEvents(documentID string) ([]models.AnnotatedEvent, error) {
	var rows []eventRow

	err := c.db.Where("document_id = ?", documentID).
		Order("event_num").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	events := make([]models.AnnotatedEvent, 0, len(rows))
	for i := range rows {
		events = append(events, models.AnnotatedEvent{
			DocumentID:     rows[i].DocumentID,
			EventType:      rows[i].EventType,
			Index:          rows[i].EventNum,
			Begin:          rows[i].EventBegin,
			End:            rows[i].EventEnd,
			AnnotationDone: rows[i].AnnotationDone,
			Recorded:       rows[i].Recorded,
		})
	}

	return events, nil
}

func (c *Client) GetMeasurements(
	documentID string,
) ([]models.Measurement, error) {
	var rows []measurementRow

	err := c.db.Where("document_id = ?", documentID).
		Order("measurement_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	samples := make([]models.Measurement, 0, len(rows))
	for i := range rows {
		samples = append(samples, models.Measurement{
			DocumentID: rows[i].DocumentID,
			Time:       rows[i].TimeS,
			Torque:     rows[i].TorqueNm,
		})
	}

	return samples, nil
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
