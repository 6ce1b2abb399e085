package workflow

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ayoisaiah/cranio/internal/models"
)

var errDiskFull = errors.New("disk full")

// GatewayMock records everything written to it. Setting a field in fail
// makes the matching call return errDiskFull.
type GatewayMock struct {
	mu           sync.Mutex
	fail         map[string]bool
	sessions     []models.Session
	patients     map[string]models.Patient
	sensors      map[string]models.SensorInfo
	documents    map[string]models.Document
	events       map[string][]models.AnnotatedEvent
	measurements map[string][]models.Measurement
	calls        []string
}

func newGatewayMock() *GatewayMock {
	return &GatewayMock{
		fail:         make(map[string]bool),
		patients:     make(map[string]models.Patient),
		sensors:      make(map[string]models.SensorInfo),
		documents:    make(map[string]models.Document),
		events:       make(map[string][]models.AnnotatedEvent),
		measurements: make(map[string][]models.Measurement),
	}
}

func (g *GatewayMock) record(call string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, call)

	if g.fail[call] {
		return errDiskFull
	}

	return nil
}

func (g *GatewayMock) setFail(call string, fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.fail[call] = fail
}

func (g *GatewayMock) SaveSession(sess *models.Session) error {
	if err := g.record("SaveSession"); err != nil {
		return err
	}

	g.sessions = append(g.sessions, *sess)

	return nil
}

func (g *GatewayMock) SavePatient(p *models.Patient) error {
	if err := g.record("SavePatient"); err != nil {
		return err
	}

	if _, ok := g.patients[p.ID]; !ok {
		g.patients[p.ID] = *p
	}

	return nil
}

func (g *GatewayMock) SaveSensor(info *models.SensorInfo) error {
	if err := g.record("SaveSensor"); err != nil {
		return err
	}

	g.sensors[info.SerialNumber] = *info

	return nil
}

func (g *GatewayMock) SaveDocument(doc *models.Document) error {
	if err := g.record("SaveDocument"); err != nil {
		return err
	}

	g.documents[doc.ID] = *doc

	return nil
}

func (g *GatewayMock) SaveEvents(
	documentID string,
	events []models.AnnotatedEvent,
) error {
	if err := g.record("SaveEvents"); err != nil {
		return err
	}

	g.events[documentID] = append([]models.AnnotatedEvent(nil), events...)

	return nil
}

func (g *GatewayMock) DeleteEvents(documentID string) error {
	if err := g.record("DeleteEvents"); err != nil {
		return err
	}

	delete(g.events, documentID)

	return nil
}

func (g *GatewayMock) SaveMeasurements(
	documentID string,
	samples []models.Measurement,
) error {
	if err := g.record("SaveMeasurements"); err != nil {
		return err
	}

	g.measurements[documentID] = append(
		[]models.Measurement(nil),
		samples...,
	)

	return nil
}

func (g *GatewayMock) GetSession(id string) (*models.Session, error) {
	if err := g.record("GetSession"); err != nil {
		return nil, err
	}

	for i := range g.sessions {
		if g.sessions[i].ID == id {
			sess := g.sessions[i]
			return &sess, nil
		}
	}

	return nil, nil
}

type fakeClock struct {
	current time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{current: start}
}

func (f *fakeClock) Now() time.Time          { return f.current }
func (f *fakeClock) Advance(d time.Duration) { f.current = f.current.Add(d) }

var testStart = time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)

var testSensor = models.SensorInfo{
	SerialNumber:    "DUMMY53N50RFTW",
	Name:            "Dummy",
	TurnsInFullTurn: 3,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMachine(t *testing.T) (*Machine, *GatewayMock, *fakeClock) {
	t.Helper()

	gw := newGatewayMock()
	clock := newFakeClock(testStart)

	m := New(Env{
		Session: &models.Session{
			ID:        "0190f1a4-6b2c-7d3e-8f40-123456789abc",
			StartedAt: testStart,
			Version:   "test",
		},
		Store:            gw,
		Clock:            clock,
		Logger:           discardLogger(),
		DistractorType:   models.KLSArnaud,
		PlaceholderCount: 3,
		DistractorCount:  2,
	})

	return m, gw, clock
}

func mustFire(t *testing.T, m *Machine, in Input) {
	t.Helper()

	if err := m.Fire(in); err != nil {
		t.Fatalf("%s in %s: %v", in.Trigger, m.State(), err)
	}
}

// readyMachine returns a machine in Initial whose Start guard is satisfied.
func readyMachine(t *testing.T) (*Machine, *GatewayMock, *fakeClock) {
	t.Helper()

	m, gw, clock := newTestMachine(t)

	mustFire(t, m, Input{Trigger: ConnectSensor, Sensor: testSensor})
	mustFire(t, m, Input{Trigger: SelectPatient, Patient: "P-0042"})
	mustFire(t, m, Input{Trigger: SelectDistractor, Distractor: 1})
	mustFire(t, m, Input{Trigger: SetOperator, Operator: "Dr. Jane"})

	return m, gw, clock
}

// measuredMachine returns a machine in EventDetection after n samples taken
// one second apart.
func measuredMachine(
	t *testing.T,
	n int,
) (*Machine, *GatewayMock, *fakeClock) {
	t.Helper()

	m, gw, clock := readyMachine(t)

	mustFire(t, m, Input{Trigger: Start})

	for i := range n {
		clock.Advance(time.Second)

		if !m.Append(clock.Now(), float64(i)+0.5) {
			t.Fatalf("sample %d was discarded", i)
		}
	}

	mustFire(t, m, Input{Trigger: Stop})

	return m, gw, clock
}

func ptr[T any](v T) *T {
	return &v
}
