// Package store persists sessions, patients, sensors and measurement
// documents in a BoltDB file.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io/fs"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/cranio/internal/models"
)

const (
	sessionBucket     = "sessions"
	patientBucket     = "patients"
	sensorBucket      = "sensors"
	documentBucket    = "documents"
	eventBucket       = "events"
	measurementBucket = "measurements"
	metaBucket        = "meta"
)

var topLevelBuckets = []string{
	sessionBucket,
	patientBucket,
	sensorBucket,
	documentBucket,
	eventBucket,
	measurementBucket,
	metaBucket,
}

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

// seqKey encodes a position so that keys sort in numeric order.
func seqKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))

	return key
}

func put(b *bolt.Bucket, key []byte, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return b.Put(key, value)
}

func (c *Client) SaveSession(sess *models.Session) error {
	return c.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket([]byte(sessionBucket)), []byte(sess.ID), sess)
	})
}

// SavePatient creates the patient unless one with the same id exists.
func (c *Client) SavePatient(p *models.Patient) error {
	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(patientBucket))

		if b.Get([]byte(p.ID)) != nil {
			return nil
		}

		return put(b, []byte(p.ID), p)
	})
}

func (c *Client) SaveSensor(info *models.SensorInfo) error {
	return c.Update(func(tx *bolt.Tx) error {
		return put(
			tx.Bucket([]byte(sensorBucket)),
			[]byte(info.SerialNumber),
			info,
		)
	})
}

// SaveDocument creates a document or overwrites it if it exists already.
func (c *Client) SaveDocument(doc *models.Document) error {
	return c.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket([]byte(documentBucket)), []byte(doc.ID), doc)
	})
}

// replaceNested recreates the per-document bucket under parent and fills it
// with values in order, all within tx.
func replaceNested[T any](
	tx *bolt.Tx,
	parent, documentID string,
	values []T,
) error {
	p := tx.Bucket([]byte(parent))

	err := p.DeleteBucket([]byte(documentID))
	if err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
		return err
	}

	b, err := p.CreateBucket([]byte(documentID))
	if err != nil {
		return err
	}

	b.FillPercent = 1

	for i := range values {
		err = put(b, seqKey(i), values[i])
		if err != nil {
			return err
		}
	}

	return nil
}

func getNested[T any](
	tx *bolt.Tx,
	parent, documentID string,
) ([]T, error) {
	b := tx.Bucket([]byte(parent)).Bucket([]byte(documentID))
	if b == nil {
		return nil, nil
	}

	var values []T

	err := b.ForEach(func(_, v []byte) error {
		var value T

		err := json.Unmarshal(v, &value)
		if err != nil {
			return err
		}

		values = append(values, value)

		return nil
	})

	return values, err
}

// SaveEvents replaces the annotated events of a document.
func (c *Client) SaveEvents(
	documentID string,
	events []models.AnnotatedEvent,
) error {
	return c.Update(func(tx *bolt.Tx) error {
		return replaceNested(tx, eventBucket, documentID, events)
	})
}

func (c *Client) DeleteEvents(documentID string) error {
	return c.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket([]byte(eventBucket)).DeleteBucket([]byte(documentID))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}

		return err
	})
}

// SaveMeasurements replaces the samples of a document.
func (c *Client) SaveMeasurements(
	documentID string,
	samples []models.Measurement,
) error {
	return c.Update(func(tx *bolt.Tx) error {
		return replaceNested(tx, measurementBucket, documentID, samples)
	})
}

// GetSession returns the session with id, or nil if there is none.
func (c *Client) GetSession(id string) (*models.Session, error) {
	var sess *models.Session

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(sessionBucket)).Get([]byte(id))
		if v == nil {
			return nil
		}

		sess = &models.Session{}

		return json.Unmarshal(v, sess)
	})
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// GetSessions returns the sessions newest first. Session ids are
// time-ordered, so the bucket is walked backwards.
func (c *Client) GetSessions() ([]models.Session, error) {
	var sessions []models.Session

	err := c.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(sessionBucket)).Cursor()

		for k, v := cur.Last(); k != nil; k, v = cur.Prev() {
			var sess models.Session

			if err := json.Unmarshal(v, &sess); err != nil {
				return err
			}

			sessions = append(sessions, sess)
		}

		return nil
	})

	return sessions, err
}

func (c *Client) GetPatients() ([]models.Patient, error) {
	var patients []models.Patient

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(patientBucket)).ForEach(func(_, v []byte) error {
			var p models.Patient

			err := json.Unmarshal(v, &p)
			if err != nil {
				return err
			}

			patients = append(patients, p)

			return nil
		})
	})

	return patients, err
}

// GetDocuments returns the documents that match filter. Document ids are
// time-ordered, so the result is sorted by start time.
func (c *Client) GetDocuments(filter DocumentFilter) ([]models.Document, error) {
	var docs []models.Document

	err := c.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(documentBucket)).Cursor()

		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var doc models.Document

			err := json.Unmarshal(v, &doc)
			if err != nil {
				return err
			}

			if filter.Match(&doc) {
				docs = append(docs, doc)
			}
		}

		return nil
	})

	return docs, err
}

func (c *Client) GetDocument(id string) (*models.Document, error) {
	var doc models.Document

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(documentBucket)).Get([]byte(id))
		if v == nil {
			return ErrDocumentNotFound.Fmt(id)
		}

		return json.Unmarshal(v, &doc)
	})
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

func (c *Client) GetEvents(documentID string) ([]models.AnnotatedEvent, error) {
	var events []models.AnnotatedEvent

	err := c.View(func(tx *bolt.Tx) error {
		var err error

		events, err = getNested[models.AnnotatedEvent](tx, eventBucket, documentID)

		return err
	})

	return events, err
}

func (c *Client) GetMeasurements(documentID string) ([]models.Measurement, error) {
	var samples []models.Measurement

	err := c.View(func(tx *bolt.Tx) error {
		var err error

		samples, err = getNested[models.Measurement](
			tx,
			measurementBucket,
			documentID,
		)

		return err
	})

	return samples, err
}

// openDB creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		pathToDB,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseOpen) ||
			errors.Is(err, bolt.ErrTimeout) {
			return nil, ErrAlreadyRunning
		}

		return nil, err
	}

	return db, nil
}

// NewClient opens the database at dbPath, creating the buckets and bringing
// the schema up to date.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	c := &Client{db}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range topLevelBuckets {
			_, err := tx.CreateBucketIfNotExists([]byte(name))
			if err != nil {
				return err
			}
		}

		return c.migrate(tx)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return c, nil
}
