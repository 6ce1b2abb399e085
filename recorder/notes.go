package recorder

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/ayoisaiah/cranio/workflow"
)

const (
	planYes     = "yes"
	planNo      = "no"
	planUnknown = "unknown"
)

var errFullTurns = errors.New("enter a non-negative number of full turns")

// noteFields holds the notes form values. They survive leaving and
// re-entering the notes step within one document.
type noteFields struct {
	fullTurns    string
	planFollowed string
	notes        string
}

func newNoteFields(suggested float64) *noteFields {
	return &noteFields{
		fullTurns:    strconv.FormatFloat(suggested, 'f', -1, 64),
		planFollowed: planUnknown,
	}
}

func validFullTurns(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return errFullTurns
	}

	return nil
}

// draft converts the form values into the payload of the Ok trigger.
func (f *noteFields) draft() (workflow.NoteDraft, error) {
	d := workflow.NoteDraft{
		Notes: strings.TrimSpace(f.notes),
	}

	if err := validFullTurns(f.fullTurns); err != nil {
		return d, err
	}

	if s := strings.TrimSpace(f.fullTurns); s != "" {
		v, _ := strconv.ParseFloat(s, 64)
		d.FullTurnCount = &v
	}

	switch f.planFollowed {
	case planYes:
		v := true
		d.PlanFollowed = &v
	case planNo:
		v := false
		d.PlanFollowed = &v
	}

	return d, nil
}

func newNotesForm(f *noteFields) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Full turns").
				Description("Full turns of the distractor in this session").
				Validate(validFullTurns).
				Value(&f.fullTurns),
			huh.NewSelect[string]().
				Title("Distraction plan followed").
				Options(
					huh.NewOption("Yes", planYes),
					huh.NewOption("No", planNo),
					huh.NewOption("Unknown", planUnknown),
				).
				Value(&f.planFollowed),
			huh.NewText().
				Title("Notes").
				CharLimit(2000).
				Value(&f.notes),
		),
	).WithShowHelp(true)
}
