// Package workflow sequences the recording cycle of a distractor measurement:
// start a measurement, stop it, annotate the distraction events, take notes
// and confirm. A Machine interprets the transition table in state.go,
// evaluates guards, runs effects against the persistence Gateway and reports
// every change to its observers.
package workflow

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayoisaiah/cranio/internal/models"
)

const defaultPlaceholderCount = 3

// Gateway persists the records of a measurement cycle. Each call must be
// atomic for the entity it writes.
type Gateway interface {
	SaveSession(sess *models.Session) error
	// SavePatient creates the patient unless it exists already.
	SavePatient(p *models.Patient) error
	SaveSensor(info *models.SensorInfo) error
	// SaveDocument creates or overwrites a document.
	SaveDocument(doc *models.Document) error
	// SaveEvents replaces the annotated events of a document.
	SaveEvents(documentID string, events []models.AnnotatedEvent) error
	DeleteEvents(documentID string) error
	// SaveMeasurements replaces the samples of a document.
	SaveMeasurements(documentID string, samples []models.Measurement) error
	// GetSession returns nil without an error when no session has the id.
	GetSession(id string) (*models.Session, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Env is everything a Machine needs from the application. It replaces any
// global notion of the active session.
type Env struct {
	Session *models.Session
	Store   Gateway
	Clock   Clock
	Logger  *slog.Logger
	// DistractorType is recorded on every new document.
	DistractorType string
	// PlaceholderCount is the number of placeholder events created when a
	// measurement stops.
	PlaceholderCount int
	// DistractorCount is the highest selectable distractor index.
	DistractorCount int
}

// Snapshot is the view of the machine handed to the presentation layer.
type Snapshot struct {
	Sensor   *models.SensorInfo
	Document *models.Document
	Last     *models.Measurement
	Session  models.Session
	State    State
	Patient  string
	Operator string
	// Fault describes the last sensor failure, if it has not been cleared by
	// reconnecting.
	Fault string
	// Samples holds the samples of the document once the measurement has
	// stopped. It must not be modified.
	Samples         []models.Measurement
	Events          []models.AnnotatedEvent
	Distractor      int
	SampleCount     int
	SensorConnected bool
	// SuggestedFullTurns is the number of full turns implied by the annotated
	// events and the sensor's turns per full turn.
	SuggestedFullTurns float64
}

// Machine is the workflow state machine. It is not safe for concurrent use:
// wrap it in a Dispatcher when triggers come from more than one goroutine.
type Machine struct {
	env        Env
	log        *slog.Logger
	sensor     *models.SensorInfo
	doc        *models.Document
	events     *EventStore
	buffer     *Buffer
	state      State
	patient    string
	operator   string
	fault      string
	samples    []models.Measurement
	observers  []func(Snapshot)
	distractor int
	connected  bool
}

// New returns a machine in the Initial state.
func New(env Env) *Machine {
	if env.Session == nil {
		panic("workflow: Env.Session is required")
	}

	if env.Store == nil {
		panic("workflow: Env.Store is required")
	}

	if env.Clock == nil {
		env.Clock = realClock{}
	}

	if env.Logger == nil {
		env.Logger = slog.Default()
	}

	if env.PlaceholderCount <= 0 {
		env.PlaceholderCount = defaultPlaceholderCount
	}

	if env.DistractorCount <= 0 {
		env.DistractorCount = 1
	}

	log := env.Logger.With(slog.String("session_id", env.Session.ID))

	return &Machine{
		env:    env,
		log:    log,
		state:  Initial,
		buffer: NewBuffer(log),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// OnTransition registers fn to receive a snapshot after every accepted
// trigger.
func (m *Machine) OnTransition(fn func(Snapshot)) {
	m.observers = append(m.observers, fn)
}

// Fire processes a trigger to completion. A rejected trigger or a failed
// effect leaves the machine exactly as it was.
func (m *Machine) Fire(in Input) error {
	row, ok := table[m.state][in.Trigger]
	if !ok {
		m.log.Warn(
			"trigger rejected",
			slog.String("state", string(m.state)),
			slog.String("trigger", string(in.Trigger)),
		)

		return ErrTriggerNotAllowed.Fmt(in.Trigger, m.state)
	}

	if row.guard != nil {
		if err := row.guard(m, in); err != nil {
			m.log.Info(
				"guard failed",
				slog.String("state", string(m.state)),
				slog.String("trigger", string(in.Trigger)),
				slog.Any("reason", err),
			)

			return err
		}
	}

	if row.effect != nil {
		if err := row.effect(m, in); err != nil {
			m.log.Error(
				"transition aborted",
				slog.String("state", string(m.state)),
				slog.String("trigger", string(in.Trigger)),
				slog.Any("error", err),
			)

			return err
		}
	}

	if row.to != "" && row.to != m.state {
		m.log.Info(
			"state changed",
			slog.String("from", string(m.state)),
			slog.String("to", string(row.to)),
			slog.String("trigger", string(in.Trigger)),
		)

		m.state = row.to
	}

	m.notify()

	return nil
}

// Append hands a sensor reading taken at the given time to the measurement
// buffer and reports whether it was kept. Readings outside an active
// measurement, or older than the document, are discarded.
func (m *Machine) Append(at time.Time, torque float64) bool {
	if m.state != Measurement || m.doc == nil {
		m.buffer.Append(0, torque)
		return false
	}

	elapsed := at.Sub(m.doc.StartedAt).Seconds()
	if elapsed < 0 {
		return false
	}

	return m.buffer.Append(elapsed, torque)
}

// Snapshot returns the current view of the machine.
func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{
		Session:         *m.env.Session,
		State:           m.state,
		Patient:         m.patient,
		Operator:        m.operator,
		Distractor:      m.distractor,
		SensorConnected: m.connected,
		Fault:           m.fault,
		Samples:         m.samples,
		SampleCount:     len(m.samples),
	}

	if m.sensor != nil {
		info := *m.sensor
		snap.Sensor = &info
	}

	if m.doc != nil {
		doc := *m.doc
		snap.Document = &doc
	}

	if m.buffer.Started() {
		snap.SampleCount = m.buffer.Len()

		if last, ok := m.buffer.Last(); ok {
			snap.Last = &last
		}
	} else if n := len(m.samples); n > 0 {
		last := m.samples[n-1]
		snap.Last = &last
	}

	if m.events != nil {
		snap.Events = m.events.All()

		if m.sensor != nil && m.sensor.TurnsInFullTurn > 0 {
			snap.SuggestedFullTurns = float64(len(snap.Events)) / m.sensor.TurnsInFullTurn
		}
	}

	return snap
}

func (m *Machine) notify() {
	if len(m.observers) == 0 {
		return
	}

	snap := m.Snapshot()

	for _, fn := range m.observers {
		fn(snap)
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// guards

func (m *Machine) canStart(Input) error {
	if !m.connected || m.sensor == nil {
		return ErrSensorNotConnected
	}

	if m.patient == "" {
		return ErrNoPatient
	}

	if m.distractor == 0 {
		return ErrNoDistractor
	}

	return nil
}

func validPatient(_ *Machine, in Input) error {
	if strings.TrimSpace(in.Patient) == "" {
		return ErrInvalidPatient
	}

	return nil
}

func (m *Machine) validDistractor(in Input) error {
	if in.Distractor < 1 || in.Distractor > m.env.DistractorCount {
		return ErrInvalidDistractor.Fmt(m.env.DistractorCount, in.Distractor)
	}

	return nil
}

func validSensor(_ *Machine, in Input) error {
	if strings.TrimSpace(in.Sensor.SerialNumber) == "" {
		return ErrInvalidSensor
	}

	return nil
}

// canReconnect accepts only the sensor the running measurement started with.
func (m *Machine) canReconnect(in Input) error {
	if err := validSensor(m, in); err != nil {
		return err
	}

	if in.Sensor.SerialNumber != m.doc.SensorSerial {
		return ErrSensorMismatch.Fmt(in.Sensor.SerialNumber, m.doc.SensorSerial)
	}

	return nil
}

func (m *Machine) sessionExists(in Input) error {
	id := strings.TrimSpace(in.SessionID)
	if id == "" {
		return ErrNoSuchSession.Fmt(in.SessionID)
	}

	sess, err := m.env.Store.GetSession(id)
	if err != nil {
		return ErrPersistence.Fmt("session").Wrap(err)
	}

	if sess == nil {
		return ErrNoSuchSession.Fmt(id)
	}

	return nil
}

func validCount(_ *Machine, in Input) error {
	if in.Count < 0 {
		return ErrInvalidCount.Fmt(in.Count)
	}

	return nil
}

func (m *Machine) eventExists(in Input) error {
	if !m.events.Has(in.Index) {
		return ErrNoSuchEvent.Fmt(in.Index)
	}

	return nil
}

func (m *Machine) canRemoveEvent(in Input) error {
	if m.events.Len() == 0 {
		return ErrNoEvents
	}

	return m.eventExists(in)
}

func (m *Machine) canEditEvent(in Input) error {
	if err := m.eventExists(in); err != nil {
		return err
	}

	if in.Begin > in.End {
		return ErrInvalidBoundaries.Fmt(in.Begin, in.End)
	}

	return nil
}

// effects

func (m *Machine) selectPatient(in Input) error {
	p := &models.Patient{
		ID:        strings.TrimSpace(in.Patient),
		CreatedAt: m.env.Clock.Now().UTC(),
	}

	if err := m.env.Store.SavePatient(p); err != nil {
		return ErrPersistence.Fmt("patient").Wrap(err)
	}

	m.patient = p.ID

	return nil
}

func (m *Machine) selectDistractor(in Input) error {
	m.distractor = in.Distractor

	return nil
}

func (m *Machine) setOperator(in Input) error {
	m.operator = strings.TrimSpace(in.Operator)

	return nil
}

func (m *Machine) connectSensor(in Input) error {
	info := in.Sensor

	if err := m.env.Store.SaveSensor(&info); err != nil {
		return ErrPersistence.Fmt("sensor").Wrap(err)
	}

	m.sensor = &info
	m.connected = true
	m.fault = ""

	return nil
}

func (m *Machine) changeSession(in Input) error {
	sess, err := m.env.Store.GetSession(strings.TrimSpace(in.SessionID))
	if err != nil {
		return ErrPersistence.Fmt("session").Wrap(err)
	}

	if sess == nil {
		return ErrNoSuchSession.Fmt(in.SessionID)
	}

	prev := m.env.Session.ID

	m.env.Session = sess
	m.log = m.env.Logger.With(slog.String("session_id", sess.ID))
	m.buffer = NewBuffer(m.log)

	m.log.Info("session changed", slog.String("previous_session_id", prev))

	return nil
}

func (m *Machine) disconnectSensor(Input) error {
	m.connected = false

	return nil
}

func (m *Machine) sensorLost(in Input) error {
	m.connected = false

	err := in.Err
	if err == nil {
		err = ErrSensorLost
	}

	m.fault = err.Error()

	m.log.Warn(
		"sensor lost",
		slog.String("state", string(m.state)),
		slog.Int("buffered", m.buffer.Len()),
		slog.Any("error", err),
	)

	return nil
}

func (m *Machine) startMeasurement(Input) error {
	doc := &models.Document{
		ID:              newID(),
		SessionID:       m.env.Session.ID,
		PatientID:       m.patient,
		SensorSerial:    m.sensor.SerialNumber,
		DistractorIndex: m.distractor,
		DistractorType:  m.env.DistractorType,
		StartedAt:       m.env.Clock.Now().UTC(),
		Operator:        m.operator,
	}

	if err := m.env.Store.SaveDocument(doc); err != nil {
		return ErrPersistence.Fmt("document").Wrap(err)
	}

	m.doc = doc
	m.samples = nil
	m.events = NewEventStore(doc.ID)
	m.events.Seal()
	m.buffer.Clear()
	m.buffer.Start()

	m.log.Info(
		"measurement started",
		slog.String("document_id", doc.ID),
		slog.String("patient_id", doc.PatientID),
		slog.Int("distractor", doc.DistractorIndex),
	)

	return nil
}

func (m *Machine) stopMeasurement(Input) error {
	pending := m.buffer.Snapshot()
	for i := range pending {
		pending[i].DocumentID = m.doc.ID
	}

	if err := m.env.Store.SaveMeasurements(m.doc.ID, pending); err != nil {
		return ErrPersistence.Fmt("measurements").Wrap(err)
	}

	m.buffer.Stop()

	m.samples = pending

	m.events.Unseal()
	m.events.AddPlaceholders(m.env.PlaceholderCount, SpanOf(m.samples))

	m.log.Info(
		"measurement stopped",
		slog.String("document_id", m.doc.ID),
		slog.Int("samples", len(m.samples)),
	)

	return nil
}

func (m *Machine) addEvents(in Input) error {
	count := in.Count
	if count == 0 {
		count = m.env.PlaceholderCount
	}

	m.events.AddPlaceholders(count, SpanOf(m.samples))

	return nil
}

func (m *Machine) removeEvent(in Input) error {
	return m.events.Remove(in.Index)
}

func (m *Machine) editEvent(in Input) error {
	return m.events.UpdateBoundaries(in.Index, in.Begin, in.End)
}

func (m *Machine) flagEvent(in Input) error {
	return m.events.SetFlags(in.Index, in.AnnotationDone, in.Recorded)
}

func (m *Machine) saveEvents(Input) error {
	m.events.Renumber()

	if err := m.env.Store.SaveEvents(m.doc.ID, m.events.All()); err != nil {
		return ErrPersistence.Fmt("events").Wrap(err)
	}

	m.events.Seal()

	return nil
}

func (m *Machine) discardEvents(Input) error {
	if err := m.env.Store.DeleteEvents(m.doc.ID); err != nil {
		return ErrPersistence.Fmt("events").Wrap(err)
	}

	m.events.Unseal()

	return nil
}

// skipEvents leaves the document with its samples but without events or
// notes.
func (m *Machine) skipEvents(Input) error {
	if err := m.env.Store.DeleteEvents(m.doc.ID); err != nil {
		return ErrPersistence.Fmt("events").Wrap(err)
	}

	m.events.Seal()

	m.log.Info(
		"event annotation skipped",
		slog.String("document_id", m.doc.ID),
		slog.Int("samples", len(m.samples)),
	)

	return nil
}

func (m *Machine) writeNotes(in Input) error {
	if m.doc.Finalized {
		panic("workflow: notes written to a finalized document")
	}

	updated := *m.doc

	notes := in.Note.Notes
	updated.Notes = &notes
	updated.FullTurnCount = in.Note.FullTurnCount
	updated.PlanFollowed = in.Note.PlanFollowed
	updated.Completed = true

	if err := m.env.Store.SaveDocument(&updated); err != nil {
		return ErrPersistence.Fmt("document").Wrap(err)
	}

	m.doc = &updated

	return nil
}

func (m *Machine) finalize(Input) error {
	updated := *m.doc
	updated.Finalized = true

	if err := m.env.Store.SaveDocument(&updated); err != nil {
		return ErrPersistence.Fmt("document").Wrap(err)
	}

	m.doc = &updated

	m.log.Info("document finalized", slog.String("document_id", updated.ID))

	return nil
}
