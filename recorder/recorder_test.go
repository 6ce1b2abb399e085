package recorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/cranio/internal/models"
	"github.com/ayoisaiah/cranio/store"
	"github.com/ayoisaiah/cranio/workflow"
)

var testStart = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

// machineWorkflow runs triggers on the machine directly, so that a submitted
// trigger has completed by the time its command returns.
type machineWorkflow struct {
	m *workflow.Machine
}

func (w *machineWorkflow) Submit(_ context.Context, in workflow.Input) error {
	return w.m.Fire(in)
}

func (w *machineWorkflow) Snapshot() workflow.Snapshot {
	return w.m.Snapshot()
}

type sensorMock struct {
	err         error
	connects    int
	disconnects int
}

func (s *sensorMock) Info() models.SensorInfo {
	return models.SensorInfo{
		SerialNumber:    "DUMMY53N50RFTW",
		Name:            "dummy",
		TurnsInFullTurn: 3,
	}
}

func (s *sensorMock) Connect(context.Context) error {
	s.connects++
	return s.err
}

func (s *sensorMock) Disconnect() {
	s.disconnects++
}

type fixture struct {
	model   *Model
	machine *workflow.Machine
	sensor  *sensorMock
	db      *store.Client
	clock   *fixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := store.NewClient(filepath.Join(t.TempDir(), "cranio.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &fixedClock{t: testStart}

	m := workflow.New(workflow.Env{
		Session: &models.Session{
			ID:        "session-1",
			StartedAt: testStart,
			Version:   "test",
		},
		Store:            db,
		Clock:            clock,
		Logger:           log,
		DistractorType:   models.KLSArnaud,
		PlaceholderCount: 3,
		DistractorCount:  2,
	})

	sensor := &sensorMock{}

	model := New(context.Background(), &machineWorkflow{m}, sensor, Options{
		Logger:   log,
		Sessions: db,
	})

	return &fixture{
		model:   model,
		machine: m,
		sensor:  sensor,
		db:      db,
		clock:   clock,
	}
}

// run executes cmd and feeds the outcome of submitted triggers back into
// the model. Commands that do not finish quickly, such as ticks and cursor
// blinks, are dropped.
func (f *fixture) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}

	out := make(chan tea.Msg, 1)

	go func() { out <- cmd() }()

	var msg tea.Msg

	select {
	case msg = <-out:
	case <-time.After(50 * time.Millisecond):
		return
	}

	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			f.run(c)
		}
	case resultMsg, hookMsg, sessionsMsg:
		_, next := f.model.Update(msg)
		f.run(next)
	}
}

func (f *fixture) press(keys ...tea.KeyMsg) {
	for _, k := range keys {
		_, cmd := f.model.Update(k)
		f.run(cmd)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typed(s string) []tea.KeyMsg {
	keys := make([]tea.KeyMsg, 0, len(s))
	for _, r := range s {
		keys = append(keys, runes(string(r)))
	}

	return keys
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

// ready connects the sensor and selects patient P-1 and distractor 1.
func (f *fixture) ready(t *testing.T) {
	t.Helper()

	f.press(runes("c"), runes("p"))
	f.press(typed("P-1")...)
	f.press(enter, runes("1"))

	require.NoError(t, f.model.err)
}

func (f *fixture) measure(t *testing.T, n int) {
	t.Helper()

	f.press(runes("s"))
	require.Equal(t, workflow.Measurement, f.model.snap.State)

	for i := range n {
		at := testStart.Add(time.Duration(i) * 20 * time.Millisecond)
		f.machine.Append(at, float64(i%10)/10)
	}

	f.press(space)
	require.Equal(t, workflow.EventDetection, f.model.snap.State)
}

func TestTriggerFor(t *testing.T) {
	testCases := []struct {
		state workflow.State
		key   tea.KeyMsg
		want  workflow.Trigger
		ok    bool
	}{
		{workflow.Initial, runes("s"), workflow.Start, true},
		{workflow.Initial, runes("c"), workflow.ConnectSensor, true},
		{workflow.Initial, runes("d"), workflow.DisconnectSensor, true},
		{workflow.Initial, runes("3"), workflow.SelectDistractor, true},
		{workflow.Initial, runes("p"), workflow.SelectPatient, true},
		{workflow.Initial, runes("o"), workflow.SetOperator, true},
		{workflow.Initial, runes("S"), workflow.ChangeSession, true},
		{workflow.Initial, enter, "", false},
		{workflow.Measurement, runes("s"), workflow.Stop, true},
		{workflow.Measurement, space, workflow.Stop, true},
		{workflow.Measurement, runes("c"), workflow.ConnectSensor, true},
		{workflow.Measurement, runes("d"), "", false},
		{workflow.EventDetection, enter, workflow.Ok, true},
		{workflow.EventDetection, runes("a"), workflow.AddEvent, true},
		{workflow.EventDetection, runes("x"), workflow.RemoveEvent, true},
		{workflow.EventDetection, runes("f"), workflow.FlagEvent, true},
		{workflow.EventDetection, runes("r"), workflow.FlagEvent, true},
		{workflow.EventDetection, runes("]"), workflow.EditEvent, true},
		{workflow.EventDetection, runes("{"), workflow.EditEvent, true},
		{workflow.EventDetection, esc, workflow.SkipEvents, true},
		{workflow.EventDetection, runes("s"), "", false},
		{workflow.Note, esc, workflow.Back, true},
		{workflow.AreYouSure, runes("y"), workflow.Yes, true},
		{workflow.AreYouSure, runes("n"), workflow.No, true},
		{workflow.AreYouSure, enter, "", false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.state)+"/"+tc.key.String(), func(t *testing.T) {
			got, ok := triggerFor(tc.state, tc.key)

			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

// Every trigger the keymap produces must exist in the transition table.
func TestTriggerForMatchesTable(t *testing.T) {
	keys := append(typed("scdp o1Safrx[]{}yn"), enter, esc, space)

	for _, s := range []workflow.State{
		workflow.Initial,
		workflow.Measurement,
		workflow.EventDetection,
		workflow.Note,
		workflow.AreYouSure,
	} {
		for _, k := range keys {
			trig, ok := triggerFor(s, k)
			if !ok {
				continue
			}

			assert.True(
				t,
				slices.Contains(workflow.Triggers(s), trig),
				"%s is not accepted in %s", trig, s,
			)
		}
	}
}

func TestStartWithoutSensor(t *testing.T) {
	f := newFixture(t)

	f.press(runes("s"))

	assert.ErrorIs(t, f.model.err, workflow.ErrSensorNotConnected)
	assert.Equal(t, workflow.Initial, f.model.snap.State)
	assert.Contains(t, f.model.View(), "no sensor connected")
}

func TestConnectFailure(t *testing.T) {
	f := newFixture(t)
	f.sensor.err = errors.New("port busy")

	f.press(runes("c"))

	assert.EqualError(t, f.model.err, "port busy")
	assert.False(t, f.model.snap.SensorConnected)
}

func TestPatientPrompt(t *testing.T) {
	f := newFixture(t)

	f.press(runes("p"))
	assert.Equal(t, workflow.SelectPatient, f.model.asking)

	f.press(typed("P-7")...)
	f.press(esc)

	assert.Empty(t, f.model.asking)
	assert.Empty(t, f.model.snap.Patient)

	f.press(runes("p"))
	f.press(typed("P-7")...)
	f.press(enter)

	assert.Equal(t, "P-7", f.model.snap.Patient)

	patients, err := f.db.GetPatients()
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "P-7", patients[0].ID)
}

func TestOperatorPrompt(t *testing.T) {
	f := newFixture(t)

	f.press(runes("o"))
	f.press(typed("Dr. Ada")...)
	f.press(enter)

	assert.Equal(t, "Dr. Ada", f.model.snap.Operator)
}

func TestFullCycle(t *testing.T) {
	f := newFixture(t)

	f.ready(t)
	assert.Equal(t, 1, f.sensor.connects)
	assert.True(t, f.model.snap.SensorConnected)
	assert.Equal(t, 1, f.model.snap.Distractor)

	f.measure(t, 150)
	require.Len(t, f.model.snap.Events, 3)
	assert.Contains(t, f.model.View(), "150 samples")

	before := f.model.snap.Events[0]

	f.press(runes("]"), runes("f"))

	after := f.model.snap.Events[0]
	assert.InDelta(t, before.Begin+boundaryStep, after.Begin, 1e-9)
	assert.True(t, after.AnnotationDone)

	f.press(tea.KeyMsg{Type: tea.KeyDown}, runes("x"))
	assert.Len(t, f.model.snap.Events, 2)

	f.press(enter)
	require.Equal(t, workflow.Note, f.model.snap.State)
	require.NotNil(t, f.model.form)
	require.NotNil(t, f.model.notes)

	f.model.notes.fullTurns = "1"
	f.model.notes.planFollowed = planYes
	f.model.notes.notes = "uneventful"

	draft, err := f.model.notes.draft()
	require.NoError(t, err)

	f.run(f.model.submit(workflow.Input{Trigger: workflow.Ok, Note: draft}))
	require.Equal(t, workflow.AreYouSure, f.model.snap.State)
	assert.Contains(t, f.model.View(), "uneventful")

	f.press(runes("y"))
	require.Equal(t, workflow.Initial, f.model.snap.State)

	doc := f.model.snap.Document
	require.NotNil(t, doc)
	assert.True(t, doc.Finalized)
	assert.Contains(t, f.model.status, doc.ID)

	stored, err := f.db.GetDocument(doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Finalized)
	assert.Equal(t, "uneventful", *stored.Notes)

	events, err := f.db.GetEvents(doc.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestNotesSurviveBack(t *testing.T) {
	f := newFixture(t)

	f.ready(t)
	f.measure(t, 30)
	f.press(enter)
	require.Equal(t, workflow.Note, f.model.snap.State)

	f.model.notes.notes = "draft"

	f.press(esc)
	require.Equal(t, workflow.EventDetection, f.model.snap.State)
	assert.Nil(t, f.model.form)

	f.press(enter)
	require.Equal(t, workflow.Note, f.model.snap.State)
	assert.Equal(t, "draft", f.model.notes.notes)
}

func TestSuggestedFullTurns(t *testing.T) {
	f := newFixture(t)

	f.ready(t)
	f.measure(t, 30)
	f.press(enter)

	require.NotNil(t, f.model.notes)
	assert.Equal(t, "1", f.model.notes.fullTurns)
}

func TestQuit(t *testing.T) {
	f := newFixture(t)

	_, cmd := f.model.Update(runes("q"))
	assert.Nil(t, cmd)
	require.NotNil(t, f.model.confirm)
	assert.Contains(t, f.model.View(), "Are you sure you want to exit cranio?")

	f.press(runes("n"))
	assert.Nil(t, f.model.confirm)

	f.press(runes("q"))

	_, cmd = f.model.Update(runes("y"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, f.model.confirm)

	f.ready(t)
	f.press(runes("s"))

	_, cmd = f.model.Update(runes("q"))
	assert.Nil(t, cmd)
	assert.Nil(t, f.model.confirm)

	_, cmd = f.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSkipAnnotation(t *testing.T) {
	f := newFixture(t)

	f.ready(t)
	f.measure(t, 30)

	f.press(esc)
	require.NotNil(t, f.model.confirm)
	assert.Contains(t, f.model.View(), "without annotating")

	f.press(runes("n"))
	assert.Nil(t, f.model.confirm)
	assert.Equal(t, workflow.EventDetection, f.model.snap.State)
	assert.Len(t, f.model.snap.Events, 3)

	f.press(esc, runes("y"))
	require.NoError(t, f.model.err)
	require.Equal(t, workflow.Initial, f.model.snap.State)
	assert.Nil(t, f.model.notes)

	doc := f.model.snap.Document
	require.NotNil(t, doc)
	assert.Contains(t, f.model.status, "kept without events")

	events, err := f.db.GetEvents(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	samples, err := f.db.GetMeasurements(doc.ID)
	require.NoError(t, err)
	assert.Len(t, samples, 30)
}

func TestChangeSession(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.db.SaveSession(&models.Session{
		ID:        "session-0",
		StartedAt: testStart.Add(-24 * time.Hour),
		Version:   "test",
	}))
	require.NoError(t, f.db.SaveSession(&models.Session{
		ID:        "session-1",
		StartedAt: testStart,
		Version:   "test",
	}))

	f.press(runes("S"))
	require.True(t, f.model.picking)
	require.Len(t, f.model.choices, 1)
	assert.Contains(t, f.model.View(), "session-0")

	f.press(enter)
	require.NotNil(t, f.model.confirm)
	assert.Contains(t, f.model.confirm.question, "session-0")

	// declining returns to the list
	f.press(runes("n"))
	assert.True(t, f.model.picking)
	assert.Equal(t, "session-1", f.model.snap.Session.ID)

	f.press(enter, runes("y"))
	require.NoError(t, f.model.err)
	assert.False(t, f.model.picking)
	assert.Equal(t, "session-0", f.model.snap.Session.ID)
	assert.Contains(t, f.model.status, "session-0")

	f.press(runes("S"), esc)
	assert.False(t, f.model.picking)
	assert.Equal(t, "session-0", f.model.snap.Session.ID)
}

func TestChangeSessionWithoutEarlierSessions(t *testing.T) {
	f := newFixture(t)

	f.press(runes("S"))

	assert.False(t, f.model.picking)
	assert.Contains(t, f.model.status, "no earlier sessions")
}

func TestReconnectDuringMeasurement(t *testing.T) {
	f := newFixture(t)

	f.ready(t)
	f.press(runes("s"))
	require.Equal(t, workflow.Measurement, f.model.snap.State)

	f.machine.Append(testStart, 0.5)

	// already connected
	f.press(runes("c"))
	assert.Equal(t, 1, f.sensor.connects)

	require.NoError(t, f.machine.Fire(workflow.Input{
		Trigger: workflow.SensorLost,
		Err:     workflow.ErrSensorLost.Wrap(errors.New("cable unplugged")),
	}))
	f.run(f.model.sync())

	assert.False(t, f.model.snap.SensorConnected)
	assert.Contains(t, f.model.View(), "connect sensor")

	f.press(runes("c"))
	require.NoError(t, f.model.err)
	assert.Equal(t, 2, f.sensor.connects)
	assert.True(t, f.model.snap.SensorConnected)
	assert.Equal(t, workflow.Measurement, f.model.snap.State)

	f.machine.Append(testStart.Add(time.Second), 0.7)

	f.press(space)
	require.Equal(t, workflow.EventDetection, f.model.snap.State)

	samples := f.model.snap.Samples
	require.Len(t, samples, 2)
	assert.InDelta(t, 0.5, samples[0].Torque, 1e-9)
	assert.InDelta(t, 0.7, samples[1].Torque, 1e-9)
}

func TestBoundariesStayInsideSamples(t *testing.T) {
	f := newFixture(t)

	f.ready(t)
	f.measure(t, 30)

	span := workflow.SpanOf(f.model.snap.Samples)

	for range 10 {
		f.press(runes("["))
	}

	for range 40 {
		f.press(runes("}"))
	}

	require.NoError(t, f.model.err)

	ev := f.model.snap.Events[0]
	assert.InDelta(t, span.Begin, ev.Begin, 1e-9)
	assert.InDelta(t, span.End, ev.End, 1e-9)
}

func TestSparkline(t *testing.T) {
	assert.Empty(t, sparkline(nil, 10))
	assert.Equal(t, "▁▁▁", sparkline([]float64{2, 2, 2}, 10))
	assert.Equal(t, "▁▅█", sparkline([]float64{0, 0.5, 1}, 10))

	long := make([]float64, 100)
	long[99] = 1

	line := []rune(sparkline(long, 10))
	require.Len(t, line, 10)
	assert.Equal(t, '█', line[9])
	assert.Equal(t, '▁', line[0])
}
