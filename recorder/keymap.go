package recorder

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ayoisaiah/cranio/workflow"
)

type keymap struct {
	start       key.Binding
	stop        key.Binding
	connect     key.Binding
	disconnect  key.Binding
	patient     key.Binding
	operator    key.Binding
	session     key.Binding
	distractor  key.Binding
	add         key.Binding
	remove      key.Binding
	annotated   key.Binding
	recorded    key.Binding
	beginEarly  key.Binding
	beginLate   key.Binding
	endEarly    key.Binding
	endLate     key.Binding
	up          key.Binding
	down        key.Binding
	ok          key.Binding
	back        key.Binding
	skip        key.Binding
	yes         key.Binding
	no          key.Binding
	cancel      key.Binding
	help        key.Binding
	quit        key.Binding
	forceQuit   key.Binding
	cancelInput key.Binding
}

var defaultKeymap = keymap{
	start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start measurement"),
	),
	stop: key.NewBinding(
		key.WithKeys("s", " "),
		key.WithHelp("s/space", "stop measurement"),
	),
	connect: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "connect sensor"),
	),
	disconnect: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "disconnect sensor"),
	),
	patient: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "patient"),
	),
	operator: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "operator"),
	),
	session: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "change session"),
	),
	distractor: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "distractor"),
	),
	add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add events"),
	),
	remove: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "remove event"),
	),
	annotated: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "toggle annotated"),
	),
	recorded: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "toggle recorded"),
	),
	beginEarly: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[/]", "move begin"),
	),
	beginLate: key.NewBinding(
		key.WithKeys("]"),
	),
	endEarly: key.NewBinding(
		key.WithKeys("{"),
		key.WithHelp("{/}", "move end"),
	),
	endLate: key.NewBinding(
		key.WithKeys("}"),
	),
	up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "previous event"),
	),
	down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next event"),
	),
	ok: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "done"),
	),
	back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back to events"),
	),
	skip: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "skip annotation"),
	),
	yes: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	no: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "edit notes"),
	),
	cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
	help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	forceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
	cancelInput: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

// triggerFor maps a key press to the workflow trigger it stands for in
// state s. Keys with no meaning in s report false.
func triggerFor(s workflow.State, msg tea.KeyMsg) (workflow.Trigger, bool) {
	km := defaultKeymap

	switch s {
	case workflow.Initial:
		switch {
		case key.Matches(msg, km.start):
			return workflow.Start, true
		case key.Matches(msg, km.connect):
			return workflow.ConnectSensor, true
		case key.Matches(msg, km.disconnect):
			return workflow.DisconnectSensor, true
		case key.Matches(msg, km.distractor):
			return workflow.SelectDistractor, true
		case key.Matches(msg, km.patient):
			return workflow.SelectPatient, true
		case key.Matches(msg, km.operator):
			return workflow.SetOperator, true
		case key.Matches(msg, km.session):
			return workflow.ChangeSession, true
		}
	case workflow.Measurement:
		switch {
		case key.Matches(msg, km.stop):
			return workflow.Stop, true
		case key.Matches(msg, km.connect):
			return workflow.ConnectSensor, true
		}
	case workflow.EventDetection:
		switch {
		case key.Matches(msg, km.ok):
			return workflow.Ok, true
		case key.Matches(msg, km.add):
			return workflow.AddEvent, true
		case key.Matches(msg, km.remove):
			return workflow.RemoveEvent, true
		case key.Matches(msg, km.annotated, km.recorded):
			return workflow.FlagEvent, true
		case key.Matches(msg, km.beginEarly, km.beginLate, km.endEarly, km.endLate):
			return workflow.EditEvent, true
		case key.Matches(msg, km.skip):
			return workflow.SkipEvents, true
		}
	case workflow.Note:
		if key.Matches(msg, km.back) {
			return workflow.Back, true
		}
	case workflow.AreYouSure:
		switch {
		case key.Matches(msg, km.yes):
			return workflow.Yes, true
		case key.Matches(msg, km.no):
			return workflow.No, true
		}
	}

	return "", false
}

// distractorKey returns the distractor index typed with a number key.
func distractorKey(msg tea.KeyMsg) int {
	n, err := strconv.Atoi(msg.String())
	if err != nil {
		return 0
	}

	return n
}

// helpFor lists the bindings shown at the bottom of a step. connected is
// whether the sensor is currently delivering readings.
func helpFor(s workflow.State, connected bool) []key.Binding {
	km := defaultKeymap

	switch s {
	case workflow.Initial:
		return []key.Binding{
			km.connect, km.patient, km.distractor, km.operator,
			km.session, km.start, km.quit,
		}
	case workflow.Measurement:
		if !connected {
			return []key.Binding{km.connect, km.stop}
		}

		return []key.Binding{km.stop}
	case workflow.EventDetection:
		return []key.Binding{
			km.up, km.down, km.beginEarly, km.endEarly,
			km.annotated, km.recorded, km.add, km.remove, km.ok, km.skip,
		}
	case workflow.Note:
		return []key.Binding{km.back}
	case workflow.AreYouSure:
		return []key.Binding{km.yes, km.no}
	}

	return nil
}
