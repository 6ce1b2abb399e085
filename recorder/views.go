package recorder

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/ayoisaiah/cranio/internal/timeutil"
	"github.com/ayoisaiah/cranio/workflow"
)

const sparkWidth = 60

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 2, 64)
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}

// sparkline draws values as a row of block characters, at most width wide.
// Longer series are reduced to the maximum of each bucket.
func sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	if len(values) > width {
		reduced := make([]float64, width)
		for i := range reduced {
			lo := i * len(values) / width
			hi := (i + 1) * len(values) / width
			reduced[i] = values[lo]

			for _, v := range values[lo:hi] {
				reduced[i] = math.Max(reduced[i], v)
			}
		}

		values = reduced
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var b strings.Builder

	top := len(sparkBlocks) - 1

	for _, v := range values {
		i := 0
		if hi > lo {
			i = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}

		b.WriteRune(sparkBlocks[i])
	}

	return b.String()
}

func (m *Model) field(label, value string) string {
	if value == "" {
		value = "-"
	}

	return m.styles.label.Render(label+": ") + m.styles.value.Render(value)
}

func (m *Model) headerView() string {
	s := m.snap

	sensor := "disconnected"
	if s.SensorConnected && s.Sensor != nil {
		sensor = s.Sensor.SerialNumber
	}

	distractor := ""
	if s.Distractor > 0 {
		distractor = formatInt(s.Distractor)
	}

	rows := []string{
		m.styles.title.Render("cranio") + "  " + m.styles.hint.Render(string(s.State)),
		m.field("Patient", s.Patient) + "   " + m.field("Distractor", distractor),
		m.field("Operator", s.Operator) + "   " + m.field("Sensor", sensor),
		m.field("Session", s.Session.ID),
	}

	if s.Fault != "" {
		rows = append(rows, m.styles.warn.Render("⚠ "+s.Fault))
	}

	return strings.Join(rows, "\n")
}

func (m *Model) initialView() string {
	var b strings.Builder

	b.WriteString(m.styles.hint.Render(
		"Connect the sensor, select a patient and a distractor, then start.",
	))

	if doc := m.snap.Document; doc != nil && doc.Finalized {
		timeFormat := "03:04:05 PM"
		if m.opts.TwentyFourHour {
			timeFormat = "15:04:05"
		}

		b.WriteString("\n\n")
		b.WriteString(m.field(
			"Last document",
			fmt.Sprintf(
				"distractor %d, started %s",
				doc.DistractorIndex,
				doc.StartedAt.Local().Format(timeFormat),
			),
		))
	}

	if m.asking != "" {
		b.WriteString("\n\n" + m.prompt.View())
		b.WriteString("\n" + m.styles.hint.Render("enter to save, esc to cancel"))
	}

	if m.picking {
		b.WriteString("\n\n" + m.styles.title.Render("Continue an earlier session"))
		b.WriteString("\n" + m.sessions.View())
		b.WriteString("\n" + m.styles.hint.Render("↑/↓ to choose a session"))
	}

	return b.String()
}

func (m *Model) measurementView() string {
	s := m.snap

	var b strings.Builder

	torque, elapsed := "-", timeutil.Elapsed(0)
	if s.Last != nil {
		torque = strconv.FormatFloat(s.Last.Torque, 'f', 3, 64) + " Nm"
		elapsed = timeutil.Elapsed(s.Last.Time)
	}

	b.WriteString(m.styles.torque.Render(torque))
	b.WriteString("\n\n")
	b.WriteString(m.field("Elapsed", elapsed) + "   " + m.field("Samples", formatInt(s.SampleCount)))
	b.WriteString("\n\n")
	b.WriteString(m.styles.spark.Render(sparkline(m.recent, sparkWidth)))

	return b.String()
}

func (m *Model) eventsView() string {
	s := m.snap

	torques := make([]float64, len(s.Samples))
	for i := range s.Samples {
		torques[i] = s.Samples[i].Torque
	}

	var b strings.Builder

	b.WriteString(m.styles.spark.Render(sparkline(torques, sparkWidth)))
	b.WriteString("\n")

	span := workflow.SpanOf(s.Samples)
	b.WriteString(m.styles.hint.Render(fmt.Sprintf(
		"%d samples, %s to %s s",
		len(s.Samples),
		formatSeconds(span.Begin),
		formatSeconds(span.End),
	)))

	b.WriteString("\n\n")
	b.WriteString(m.events.View())

	return b.String()
}

func (m *Model) noteView() string {
	if m.form == nil {
		return ""
	}

	return m.field("Events", formatInt(len(m.snap.Events))) + "\n\n" + m.form.View()
}

func (m *Model) confirmView() string {
	doc := m.snap.Document
	if doc == nil {
		return ""
	}

	full := "-"
	if doc.FullTurnCount != nil {
		full = strconv.FormatFloat(*doc.FullTurnCount, 'f', -1, 64)
	}

	plan := "unknown"
	if doc.PlanFollowed != nil {
		plan = formatBool(*doc.PlanFollowed)
	}

	notes := ""
	if doc.Notes != nil {
		notes = *doc.Notes
	}

	rows := []string{
		m.styles.title.Render("Save this document?"),
		"",
		m.field("Events", formatInt(len(m.snap.Events))),
		m.field("Full turns", full),
		m.field("Plan followed", plan),
		m.field("Notes", notes),
	}

	return strings.Join(rows, "\n")
}

// helpKeys lists the bindings that apply to what is on screen.
func (m *Model) helpKeys() []key.Binding {
	km := defaultKeymap

	switch {
	case m.confirm != nil:
		return []key.Binding{km.yes, km.cancel}
	case m.picking:
		return []key.Binding{km.ok, km.cancelInput}
	}

	return helpFor(m.snap.State, m.snap.SensorConnected)
}

func (m *Model) footerView() string {
	var b strings.Builder

	switch {
	case m.err != nil:
		b.WriteString(m.styles.err.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(m.styles.ok.Render(m.status))
	}

	if m.asking == "" {
		b.WriteString("\n\n")

		if m.help.ShowAll {
			b.WriteString(m.help.FullHelpView([][]key.Binding{m.helpKeys()}))
		} else {
			b.WriteString(m.help.ShortHelpView(m.helpKeys()))
		}
	}

	return b.String()
}

func (m *Model) View() string {
	var body string

	switch m.snap.State {
	case workflow.Initial:
		body = m.initialView()
	case workflow.Measurement:
		body = m.measurementView()
	case workflow.EventDetection:
		body = m.eventsView()
	case workflow.Note:
		body = m.noteView()
	case workflow.AreYouSure:
		body = m.confirmView()
	}

	if m.confirm != nil {
		body += "\n\n" + m.styles.warn.Render(m.confirm.question)
	}

	view := m.headerView() + "\n" +
		m.styles.section.Render(body) + "\n" +
		m.footerView()

	return m.styles.base.Render(view)
}
