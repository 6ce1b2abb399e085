package store

import (
	"encoding/json"
	"strconv"

	"go.etcd.io/bbolt"

	"github.com/ayoisaiah/cranio/internal/models"
)

const schemaVersionKey = "schema_version"

// migrations[i] upgrades a database from schema version i to i+1.
var migrations = []func(tx *bbolt.Tx) error{
	func(*bbolt.Tx) error { return nil },
	migrateEventTypes,
}

// SchemaVersion is the schema version written by this build.
var SchemaVersion = len(migrations)

// migrateEventTypes sets the event type on events saved before it was
// recorded. All of those were distraction events.
func migrateEventTypes(tx *bbolt.Tx) error {
	parent := tx.Bucket([]byte(eventBucket))

	return parent.ForEachBucket(func(docID []byte) error {
		b := parent.Bucket(docID)

		updated := make(map[string]models.AnnotatedEvent)

		err := b.ForEach(func(k, v []byte) error {
			var e models.AnnotatedEvent

			err := json.Unmarshal(v, &e)
			if err != nil {
				return err
			}

			if e.EventType == "" {
				e.EventType = models.DistractionEvent
				updated[string(k)] = e
			}

			return nil
		})
		if err != nil {
			return err
		}

		for k, e := range updated {
			err = put(b, []byte(k), &e)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func schemaVersion(tx *bbolt.Tx) (int, error) {
	v := tx.Bucket([]byte(metaBucket)).Get([]byte(schemaVersionKey))
	if v == nil {
		return 0, nil
	}

	return strconv.Atoi(string(v))
}

func (c *Client) migrate(tx *bbolt.Tx) error {
	version, err := schemaVersion(tx)
	if err != nil {
		return err
	}

	if version > SchemaVersion {
		return ErrNewerSchema.Fmt(version, SchemaVersion)
	}

	for _, m := range migrations[version:] {
		err = m(tx)
		if err != nil {
			return err
		}
	}

	return tx.Bucket([]byte(metaBucket)).Put(
		[]byte(schemaVersionKey),
		[]byte(strconv.Itoa(SchemaVersion)),
	)
}
