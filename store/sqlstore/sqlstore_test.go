package sqlstore

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/cranio/internal/models"
	"github.com/ayoisaiah/cranio/store"
)

// These tests need a disposable PostgreSQL database, for example:
//
//	CRANIO_TEST_POSTGRES_DSN="host=localhost user=postgres dbname=cranio_test sslmode=disable"
func newTestClient(t *testing.T) *Client {
	t.Helper()

	dsn := os.Getenv("CRANIO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CRANIO_TEST_POSTGRES_DSN is not set")
	}

	c, err := Open(dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

func TestDocumentLifecycle(t *testing.T) {
	c := newTestClient(t)

	start := time.Now().UTC().Truncate(time.Microsecond)
	patient := "P-" + uuid.NewString()

	require.NoError(t, c.SaveSession(&models.Session{
		ID:        uuid.NewString(),
		StartedAt: start,
		Version:   "test",
	}))
	require.NoError(t, c.SavePatient(&models.Patient{ID: patient, CreatedAt: start}))
	require.NoError(t, c.SavePatient(&models.Patient{ID: patient, CreatedAt: start.Add(time.Hour)}))

	doc := &models.Document{
		ID:              uuid.Must(uuid.NewV7()).String(),
		SessionID:       "sess",
		PatientID:       patient,
		SensorSerial:    "DUMMY53N50RFTW",
		DistractorIndex: 2,
		DistractorType:  models.KLSRed,
		StartedAt:       start,
		Operator:        "Dr. Jane",
	}

	require.NoError(t, c.SaveDocument(doc))

	samples := []models.Measurement{
		{DocumentID: doc.ID, Time: 0.1, Torque: 0.5},
		{DocumentID: doc.ID, Time: 0.2, Torque: 0.7},
	}

	require.NoError(t, c.SaveMeasurements(doc.ID, samples))
	require.NoError(t, c.SaveMeasurements(doc.ID, samples))

	events := []models.AnnotatedEvent{
		{DocumentID: doc.ID, EventType: "D", Index: 0, Begin: 0.1, End: 0.15, Recorded: true},
		{DocumentID: doc.ID, EventType: "D", Index: 1, Begin: 0.15, End: 0.2, Recorded: true},
	}

	require.NoError(t, c.SaveEvents(doc.ID, events))

	notes := "ok"
	doc.Notes = &notes
	doc.Completed = true

	require.NoError(t, c.SaveDocument(doc))

	got, err := c.GetDocument(doc.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	gotSamples, err := c.GetMeasurements(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, samples, gotSamples, "saving twice replaces")

	gotEvents, err := c.GetEvents(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, events, gotEvents)

	docs, err := c.GetDocuments(store.DocumentFilter{PatientID: patient})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, c.DeleteEvents(doc.ID))

	gotEvents, err = c.GetEvents(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, gotEvents)

	_, err = c.GetDocument("missing")
	assert.ErrorIs(t, err, store.ErrDocumentNotFound)
}

func TestSessionLookup(t *testing.T) {
	c := newTestClient(t)

	sess := models.Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		StartedAt: time.Now().UTC().Truncate(time.Microsecond),
		Version:   "test",
	}

	require.NoError(t, c.SaveSession(&sess))

	got, err := c.GetSession(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.ID, got.ID)
	assert.True(t, got.StartedAt.Equal(sess.StartedAt))

	got, err = c.GetSession(uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)

	sessions, err := c.GetSessions()
	require.NoError(t, err)

	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}

	assert.Contains(t, ids, sess.ID)
}
