package store

import (
	"time"

	"github.com/ayoisaiah/cranio/internal/models"
	"github.com/ayoisaiah/cranio/workflow"
)

// DocumentFilter narrows down the documents returned by GetDocuments. Zero
// values match everything.
type DocumentFilter struct {
	Since     time.Time
	Until     time.Time
	PatientID string
}

// Match reports whether doc satisfies the filter.
func (f DocumentFilter) Match(doc *models.Document) bool {
	if f.PatientID != "" && doc.PatientID != f.PatientID {
		return false
	}

	if !f.Since.IsZero() && doc.StartedAt.Before(f.Since) {
		return false
	}

	if !f.Until.IsZero() && doc.StartedAt.After(f.Until) {
		return false
	}

	return true
}

// DB is the database storage interface. Besides the writes the workflow
// needs, it answers the queries of the command-line interface.
type DB interface {
	workflow.Gateway
	// GetSessions returns all software sessions, most recent first.
	GetSessions() ([]models.Session, error)
	// GetPatients returns all patients in no particular order.
	GetPatients() ([]models.Patient, error)
	// GetDocuments returns the documents matching the filter, oldest first.
	GetDocuments(filter DocumentFilter) ([]models.Document, error)
	// GetDocument returns a single document or ErrDocumentNotFound.
	GetDocument(id string) (*models.Document, error)
	// GetEvents returns the annotated events of a document ordered by index.
	GetEvents(documentID string) ([]models.AnnotatedEvent, error)
	// GetMeasurements returns the samples of a document ordered by time.
	GetMeasurements(documentID string) ([]models.Measurement, error)
	// Close ends the database connection
	Close() error
}
