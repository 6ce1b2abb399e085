package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ayoisaiah/cranio/internal/apperr"
	"github.com/ayoisaiah/cranio/internal/config"
	"github.com/ayoisaiah/cranio/internal/models"
	"github.com/ayoisaiah/cranio/internal/ui"
	"github.com/ayoisaiah/cranio/store"
)

const (
	noDocumentsMsg = "No documents found for the specified filter"
	noPatientsMsg  = "No patients found"
	dateLayout     = "Jan 02, 2006 03:04 PM"
	dateLayout24   = "Jan 02, 2006 15:04"
)

var errMissingArg = &apperr.Error{
	Message: "missing argument: %s",
}

// outputFormat is how a command prints structured data.
type outputFormat int

const (
	outputTable outputFormat = iota
	outputJSON
	outputYAML
)

func formatFromFlags(ctx *cli.Context) outputFormat {
	switch {
	case ctx.Bool("json"):
		return outputJSON
	case ctx.Bool("yaml"):
		return outputYAML
	}

	return outputTable
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, v any, format outputFormat) error {
	if format == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))

	return err
}

func timeLayout(cfg *config.Config) string {
	if cfg.Display.TwentyFourHour {
		return dateLayout24
	}

	return dateLayout
}

// patientEntry is a patient as printed by the patients command.
type patientEntry struct {
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	ID        string    `json:"id"         yaml:"id"`
}

func printPatients(w io.Writer, cfg *config.Config, db store.DB, format outputFormat) error {
	ids, err := patientIDs(db)
	if err != nil {
		return err
	}

	patients, err := db.GetPatients()
	if err != nil {
		return err
	}

	created := make(map[string]time.Time, len(patients))
	for _, p := range patients {
		created[p.ID] = p.CreatedAt
	}

	if format != outputTable {
		out := make([]patientEntry, 0, len(ids))
		for _, id := range ids {
			out = append(out, patientEntry{ID: id, CreatedAt: created[id]})
		}

		return encode(w, out, format)
	}

	if len(ids) == 0 {
		pterm.Info.Println(noPatientsMsg)
		return nil
	}

	rows := make([][]string, 0, len(ids))

	for i, id := range ids {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			ui.Highlight(id),
			created[id].Local().Format(timeLayout(cfg)),
		})
	}

	return ui.PrintTable(w, []string{"#", "PATIENT", "CREATED"}, rows)
}

// patientsAction lists the known patients in natural order.
func patientsAction(ctx *cli.Context) error {
	e, err := setup(ctx, false)
	if err != nil {
		return err
	}

	defer e.Close()

	return printPatients(ctx.App.Writer, e.cfg, e.db, formatFromFlags(ctx))
}

// addPatientsAction registers patients ahead of a recording.
func addPatientsAction(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errMissingArg.Fmt("patient id")
	}

	e, err := setup(ctx, false)
	if err != nil {
		return err
	}

	defer e.Close()

	for _, id := range ctx.Args().Slice() {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		err := e.db.SavePatient(&models.Patient{
			ID:        id,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		pterm.Success.Printfln("patient %s registered", id)
	}

	return nil
}

func printDocumentsTable(w io.Writer, cfg *config.Config, docs []models.Document) error {
	rows := make([][]string, 0, len(docs))

	for i := range docs {
		d := &docs[i]

		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			ui.Highlight(d.ID),
			d.PatientID,
			strconv.Itoa(d.DistractorIndex),
			d.StartedAt.Local().Format(timeLayout(cfg)),
			d.Operator,
			ui.Status(d.Completed, d.Finalized),
		})
	}

	return ui.PrintTable(
		w,
		[]string{"#", "DOCUMENT", "PATIENT", "DISTRACTOR", "STARTED", "OPERATOR", "STATUS"},
		rows,
	)
}

// documentsAction lists the documents that match the filter flags.
func documentsAction(ctx *cli.Context) error {
	filter, err := config.Filter(ctx, time.Now())
	if err != nil {
		return err
	}

	e, err := setup(ctx, false)
	if err != nil {
		return err
	}

	defer e.Close()

	docs, err := e.db.GetDocuments(store.DocumentFilter{
		Since:     filter.Since,
		Until:     filter.Until,
		PatientID: filter.PatientID,
	})
	if err != nil {
		return err
	}

	if format := formatFromFlags(ctx); format != outputTable {
		return encode(ctx.App.Writer, docs, format)
	}

	if len(docs) == 0 {
		pterm.Info.Println(noDocumentsMsg)
		return nil
	}

	return printDocumentsTable(ctx.App.Writer, e.cfg, docs)
}

// documentDetail is the output of the show command.
type documentDetail struct {
	Document    models.Document         `json:"document"     yaml:"document"`
	Events      []models.AnnotatedEvent `json:"events"       yaml:"events"`
	SampleCount int                     `json:"sample_count" yaml:"sample_count"`
}

func loadDetail(db store.DB, id string) (*documentDetail, error) {
	doc, err := db.GetDocument(id)
	if err != nil {
		return nil, err
	}

	events, err := db.GetEvents(id)
	if err != nil {
		return nil, err
	}

	samples, err := db.GetMeasurements(id)
	if err != nil {
		return nil, err
	}

	return &documentDetail{
		Document:    *doc,
		Events:      events,
		SampleCount: len(samples),
	}, nil
}

func printDetail(w io.Writer, cfg *config.Config, d *documentDetail) error {
	doc := d.Document

	optional := func(s string, ok bool) string {
		if !ok {
			return "-"
		}

		return s
	}

	full := ""
	if doc.FullTurnCount != nil {
		full = strconv.FormatFloat(*doc.FullTurnCount, 'f', -1, 64)
	}

	plan := ""
	if doc.PlanFollowed != nil {
		plan = strconv.FormatBool(*doc.PlanFollowed)
	}

	notes := ""
	if doc.Notes != nil {
		notes = *doc.Notes
	}

	err := ui.PrintTable(w, []string{"FIELD", "VALUE"}, [][]string{
		{"Document", ui.Highlight(doc.ID)},
		{"Patient", doc.PatientID},
		{"Distractor", fmt.Sprintf("%d (%s)", doc.DistractorIndex, doc.DistractorType)},
		{"Sensor", doc.SensorSerial},
		{"Operator", optional(doc.Operator, doc.Operator != "")},
		{"Started", doc.StartedAt.Local().Format(timeLayout(cfg))},
		{"Samples", strconv.Itoa(d.SampleCount)},
		{"Full turns", optional(full, doc.FullTurnCount != nil)},
		{"Plan followed", optional(plan, doc.PlanFollowed != nil)},
		{"Notes", optional(notes, doc.Notes != nil)},
		{"Status", ui.Status(doc.Completed, doc.Finalized)},
	})
	if err != nil {
		return err
	}

	if len(d.Events) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(d.Events))

	for _, e := range d.Events {
		rows = append(rows, []string{
			strconv.Itoa(e.Index),
			e.EventType,
			strconv.FormatFloat(e.Begin, 'f', 3, 64),
			strconv.FormatFloat(e.End, 'f', 3, 64),
			strconv.FormatBool(e.AnnotationDone),
			strconv.FormatBool(e.Recorded),
		})
	}

	return ui.PrintTable(
		w,
		[]string{"#", "TYPE", "BEGIN (S)", "END (S)", "ANNOTATED", "RECORDED"},
		rows,
	)
}

// showAction prints a single document with its events.
func showAction(ctx *cli.Context) error {
	id := strings.TrimSpace(ctx.Args().First())
	if id == "" {
		return errMissingArg.Fmt("document id")
	}

	e, err := setup(ctx, false)
	if err != nil {
		return err
	}

	defer e.Close()

	d, err := loadDetail(e.db, id)
	if err != nil {
		return err
	}

	if format := formatFromFlags(ctx); format != outputTable {
		return encode(ctx.App.Writer, d, format)
	}

	return printDetail(ctx.App.Writer, e.cfg, d)
}
