// Package recorder is the operator's terminal interface to the workflow. It
// turns key presses into workflow triggers, submits them to the dispatcher
// and renders the latest snapshot.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/davecgh/go-spew/spew"

	"github.com/ayoisaiah/cranio/internal/models"
	"github.com/ayoisaiah/cranio/workflow"
)

const (
	refreshInterval = 100 * time.Millisecond
	// boundaryStep is how far one key press moves an event boundary.
	boundaryStep = 0.1
	recentSize   = 120
)

// Workflow accepts triggers and exposes the latest snapshot.
type Workflow interface {
	Submit(ctx context.Context, in workflow.Input) error
	Snapshot() workflow.Snapshot
}

// SensorControl opens and closes the sensor feeding the workflow.
type SensorControl interface {
	Info() models.SensorInfo
	Connect(ctx context.Context) error
	Disconnect()
}

// SessionSource lists the earlier software sessions.
type SessionSource interface {
	GetSessions() ([]models.Session, error)
}

// Options configures the recorder.
type Options struct {
	Logger *slog.Logger
	// Sessions are offered when changing session. Changing session is
	// disabled when nil.
	Sessions SessionSource
	// DocumentCmd runs after every confirmed document.
	DocumentCmd string
	// Patients are offered as completions when entering a patient id.
	Patients       []string
	DarkTheme      bool
	TwentyFourHour bool
	Notify         bool
}

type (
	tickMsg time.Time

	resultMsg struct {
		err error
		in  workflow.Input
	}

	sessionsMsg struct {
		err      error
		sessions []models.Session
	}
)

// confirmation is a yes or no question that guards an action.
type confirmation struct {
	yes      func() tea.Cmd
	question string
}

// Model is the bubbletea model of the recorder.
type Model struct {
	ctx      context.Context
	wf       Workflow
	sensor   SensorControl
	log      *slog.Logger
	err      error
	notes    *noteFields
	form     *huh.Form
	confirm  *confirmation
	styles   styles
	opts     Options
	status   string
	prompt   textinput.Model
	events   table.Model
	sessions table.Model
	help     help.Model
	snap     workflow.Snapshot
	recent   []float64
	// choices are the sessions listed in the sessions table.
	choices []models.Session
	asking  workflow.Trigger
	width   int
	pending bool
	picking bool
}

// New returns a recorder driving wf. ctx bounds every submitted trigger.
func New(
	ctx context.Context,
	wf Workflow,
	sensor SensorControl,
	opts Options,
) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	prompt := textinput.New()
	prompt.CharLimit = 64
	prompt.ShowSuggestions = true
	prompt.SetSuggestions(opts.Patients)

	events := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Begin (s)", Width: 10},
			{Title: "End (s)", Width: 10},
			{Title: "Annotated", Width: 10},
			{Title: "Recorded", Width: 9},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	sessions := table.New(
		table.WithColumns([]table.Column{
			{Title: "Session", Width: 36},
			{Title: "Started", Width: 20},
			{Title: "Version", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(6),
	)

	m := &Model{
		ctx:      ctx,
		wf:       wf,
		sensor:   sensor,
		log:      opts.Logger,
		opts:     opts,
		prompt:   prompt,
		events:   events,
		sessions: sessions,
		help:     help.New(),
		styles:   newStyles(opts.DarkTheme),
		snap:     wf.Snapshot(),
	}

	m.events.SetStyles(m.styles.table)
	m.sessions.SetStyles(m.styles.table)

	return m
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the periodic snapshot refresh.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.enter(m.snap.State))
}

// submit sends in to the workflow without blocking the UI.
func (m *Model) submit(in workflow.Input) tea.Cmd {
	m.pending = true

	return func() tea.Msg {
		return resultMsg{
			in:  in,
			err: m.wf.Submit(m.ctx, in),
		}
	}
}

// connect opens the sensor before reporting it to the workflow.
func (m *Model) connect() tea.Cmd {
	m.pending = true

	return func() tea.Msg {
		in := workflow.Input{
			Trigger: workflow.ConnectSensor,
			Sensor:  m.sensor.Info(),
		}

		if err := m.sensor.Connect(m.ctx); err != nil {
			return resultMsg{in: in, err: err}
		}

		return resultMsg{in: in, err: m.wf.Submit(m.ctx, in)}
	}
}

func (m *Model) disconnect() tea.Cmd {
	m.pending = true

	return func() tea.Msg {
		m.sensor.Disconnect()

		in := workflow.Input{Trigger: workflow.DisconnectSensor}

		return resultMsg{in: in, err: m.wf.Submit(m.ctx, in)}
	}
}

// sync pulls the latest snapshot and reacts to what changed.
func (m *Model) sync() tea.Cmd {
	prev := m.snap
	m.snap = m.wf.Snapshot()

	var cmds []tea.Cmd

	if m.snap.Fault != "" && m.snap.Fault != prev.Fault {
		cmds = append(cmds, m.notifyLost(m.snap.Fault))
	}

	if m.snap.State != prev.State {
		cmds = append(cmds, m.enter(m.snap.State))
	}

	switch m.snap.State {
	case workflow.Measurement:
		if m.snap.Last != nil && m.snap.SampleCount != prev.SampleCount {
			m.recent = append(m.recent, m.snap.Last.Torque)
			if len(m.recent) > recentSize {
				m.recent = m.recent[len(m.recent)-recentSize:]
			}
		}
	case workflow.EventDetection:
		m.refreshEvents()
	}

	return tea.Batch(cmds...)
}

// enter prepares the UI for state s.
func (m *Model) enter(s workflow.State) tea.Cmd {
	m.form = nil

	switch s {
	case workflow.Measurement:
		m.recent = nil
		m.notes = nil
	case workflow.EventDetection:
		m.refreshEvents()
	case workflow.Note:
		if m.notes == nil {
			m.notes = newNoteFields(m.snap.SuggestedFullTurns)
		}

		m.form = newNotesForm(m.notes)

		return m.form.Init()
	}

	return nil
}

func (m *Model) refreshEvents() {
	rows := make([]table.Row, 0, len(m.snap.Events))

	for _, e := range m.snap.Events {
		rows = append(rows, table.Row{
			formatInt(e.Index),
			formatSeconds(e.Begin),
			formatSeconds(e.End),
			formatBool(e.AnnotationDone),
			formatBool(e.Recorded),
		})
	}

	m.events.SetRows(rows)

	if c := m.events.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.events.SetCursor(len(rows) - 1)
	}
}

// selectedEvent returns the event under the table cursor.
func (m *Model) selectedEvent() (models.AnnotatedEvent, bool) {
	c := m.events.Cursor()
	if c < 0 || c >= len(m.snap.Events) {
		return models.AnnotatedEvent{}, false
	}

	return m.snap.Events[c], true
}

// inputFor completes trigger t with the payload implied by msg and the
// current selection.
func (m *Model) inputFor(t workflow.Trigger, msg tea.KeyMsg) (workflow.Input, bool) {
	in := workflow.Input{Trigger: t}

	km := defaultKeymap

	switch t {
	case workflow.SelectDistractor:
		in.Distractor = distractorKey(msg)
	case workflow.RemoveEvent, workflow.FlagEvent, workflow.EditEvent:
		ev, ok := m.selectedEvent()
		if !ok {
			return in, false
		}

		in.Index = ev.Index
		in.Begin, in.End = ev.Begin, ev.End
		in.AnnotationDone, in.Recorded = ev.AnnotationDone, ev.Recorded

		switch {
		case key.Matches(msg, km.annotated):
			in.AnnotationDone = !ev.AnnotationDone
		case key.Matches(msg, km.recorded):
			in.Recorded = !ev.Recorded
		case key.Matches(msg, km.beginEarly):
			in.Begin -= boundaryStep
		case key.Matches(msg, km.beginLate):
			in.Begin += boundaryStep
		case key.Matches(msg, km.endEarly):
			in.End -= boundaryStep
		case key.Matches(msg, km.endLate):
			in.End += boundaryStep
		}

		in.Begin, in.End = m.clampToSamples(in.Begin), m.clampToSamples(in.End)
	}

	return in, true
}

// clampToSamples keeps an event boundary inside the recorded time span.
func (m *Model) clampToSamples(t float64) float64 {
	span := workflow.SpanOf(m.snap.Samples)
	if span.End <= span.Begin {
		return t
	}

	return min(max(t, span.Begin), span.End)
}

// ask shows question and runs yes once the operator confirms it.
func (m *Model) ask(question string, yes func() tea.Cmd) {
	m.confirm = &confirmation{question: question, yes: yes}
}

func (m *Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm

	switch {
	case key.Matches(msg, defaultKeymap.yes):
		m.confirm = nil
		return m, c.yes()
	case key.Matches(msg, defaultKeymap.cancel):
		m.confirm = nil
	}

	return m, nil
}

func (m *Model) timestamp(t time.Time) string {
	if m.opts.TwentyFourHour {
		return t.Local().Format("Jan 02, 2006 15:04")
	}

	return t.Local().Format("Jan 02, 2006 03:04 PM")
}

func (m *Model) loadSessions() tea.Cmd {
	src := m.opts.Sessions

	return func() tea.Msg {
		sessions, err := src.GetSessions()
		return sessionsMsg{sessions: sessions, err: err}
	}
}

// openSessions lists every session but the current one for the operator
// to pick from.
func (m *Model) openSessions(msg sessionsMsg) {
	if msg.err != nil {
		m.err = msg.err
		return
	}

	m.choices = m.choices[:0]
	rows := make([]table.Row, 0, len(msg.sessions))

	for _, s := range msg.sessions {
		if s.ID == m.snap.Session.ID {
			continue
		}

		m.choices = append(m.choices, s)
		rows = append(rows, table.Row{s.ID, m.timestamp(s.StartedAt), s.Version})
	}

	if len(rows) == 0 {
		m.status = "no earlier sessions to continue"
		return
	}

	m.sessions.SetRows(rows)
	m.sessions.SetCursor(0)
	m.picking = true
}

func (m *Model) handlePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, defaultKeymap.cancelInput):
		m.picking = false
		return m, nil
	case key.Matches(msg, defaultKeymap.ok):
		c := m.sessions.Cursor()
		if c < 0 || c >= len(m.choices) {
			return m, nil
		}

		s := m.choices[c]

		m.ask(
			fmt.Sprintf(
				"You have selected session %s started %s. Continue?",
				s.ID,
				m.timestamp(s.StartedAt),
			),
			func() tea.Cmd {
				m.picking = false

				return m.submit(workflow.Input{
					Trigger:   workflow.ChangeSession,
					SessionID: s.ID,
				})
			},
		)

		return m, nil
	}

	var cmd tea.Cmd
	m.sessions, cmd = m.sessions.Update(msg)

	return m, cmd
}

func (m *Model) openPrompt(t workflow.Trigger) tea.Cmd {
	m.asking = t
	m.prompt.Reset()

	switch t {
	case workflow.SelectPatient:
		m.prompt.Placeholder = "patient id"
		m.prompt.SetValue(m.snap.Patient)
	case workflow.SetOperator:
		m.prompt.Placeholder = "operator name"
		m.prompt.SetValue(m.snap.Operator)
	}

	m.prompt.CursorEnd()

	return m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.asking = ""
	m.prompt.Blur()
}

func (m *Model) handlePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, defaultKeymap.cancelInput):
		m.closePrompt()
		return m, nil
	case key.Matches(msg, defaultKeymap.ok):
		in := workflow.Input{Trigger: m.asking}

		if m.asking == workflow.SelectPatient {
			in.Patient = m.prompt.Value()
		} else {
			in.Operator = m.prompt.Value()
		}

		m.closePrompt()

		return m, m.submit(in)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)

	return m, cmd
}

func (m *Model) handleForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, defaultKeymap.back) {
		return m, m.submit(workflow.Input{Trigger: workflow.Back})
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted || m.pending {
		return m, cmd
	}

	draft, err := m.notes.draft()
	if err != nil {
		m.err = err
		m.form = newNotesForm(m.notes)

		return m, m.form.Init()
	}

	return m, m.submit(workflow.Input{Trigger: workflow.Ok, Note: draft})
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, defaultKeymap.forceQuit) {
		return m, tea.Quit
	}

	if m.confirm != nil {
		return m.handleConfirm(msg)
	}

	if m.asking != "" {
		return m.handlePrompt(msg)
	}

	if m.picking {
		return m.handlePicker(msg)
	}

	if m.form != nil {
		return m.handleForm(msg)
	}

	switch {
	case key.Matches(msg, defaultKeymap.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case m.snap.State == workflow.Initial && key.Matches(msg, defaultKeymap.quit):
		m.ask("Are you sure you want to exit cranio?", func() tea.Cmd {
			return tea.Quit
		})

		return m, nil
	case m.snap.State == workflow.EventDetection &&
		key.Matches(msg, defaultKeymap.up, defaultKeymap.down):
		var cmd tea.Cmd
		m.events, cmd = m.events.Update(msg)

		return m, cmd
	}

	if m.pending {
		return m, nil
	}

	t, ok := triggerFor(m.snap.State, msg)
	if !ok {
		return m, nil
	}

	m.err = nil
	m.status = ""

	switch t {
	case workflow.SelectPatient, workflow.SetOperator:
		return m, m.openPrompt(t)
	case workflow.ConnectSensor:
		if m.snap.State == workflow.Measurement && m.snap.SensorConnected {
			return m, nil
		}

		return m, m.connect()
	case workflow.DisconnectSensor:
		return m, m.disconnect()
	case workflow.ChangeSession:
		if m.opts.Sessions == nil {
			return m, nil
		}

		return m, m.loadSessions()
	case workflow.SkipEvents:
		m.ask(
			"Continue without annotating any events for the recorded data?",
			func() tea.Cmd {
				return m.submit(workflow.Input{Trigger: workflow.SkipEvents})
			},
		)

		return m, nil
	}

	in, ok := m.inputFor(t, msg)
	if !ok {
		return m, nil
	}

	return m, m.submit(in)
}

func (m *Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	m.pending = false
	m.err = msg.err

	var cmds []tea.Cmd

	if msg.err != nil {
		m.log.Info(
			"trigger rejected",
			slog.String("trigger", string(msg.in.Trigger)),
			slog.Any("error", msg.err),
		)

		if m.form != nil && m.form.State == huh.StateCompleted {
			m.form = newNotesForm(m.notes)
			cmds = append(cmds, m.form.Init())
		}
	}

	cmds = append(cmds, m.sync())

	if msg.err == nil {
		switch msg.in.Trigger {
		case workflow.Yes:
			if doc := m.snap.Document; doc != nil {
				m.status = "document " + doc.ID + " saved"
				cmds = append(cmds, m.runDocumentCmd(doc.ID))
			}
		case workflow.ConnectSensor:
			m.status = "sensor " + msg.in.Sensor.SerialNumber + " connected"
		case workflow.SkipEvents:
			if doc := m.snap.Document; doc != nil {
				m.status = "document " + doc.ID + " kept without events"
			}
		case workflow.ChangeSession:
			m.status = "continuing session " + msg.in.SessionID
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tickMsg); !ok && m.log.Enabled(m.ctx, slog.LevelDebug) {
		m.log.Debug(spew.Sdump(msg))
	}

	switch msg := msg.(type) {
	case tickMsg:
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}

		return m, tea.Batch(m.sync(), tick())

	case resultMsg:
		return m.handleResult(msg)

	case sessionsMsg:
		m.openSessions(msg)
		return m, nil

	case hookMsg:
		if msg.err != nil {
			m.err = msg.err
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.form != nil {
		return m.handleForm(msg)
	}

	return m, nil
}
