package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/maruel/natural"
	"golang.org/x/sync/errgroup"

	"github.com/ayoisaiah/cranio/internal/config"
	"github.com/ayoisaiah/cranio/internal/models"
	"github.com/ayoisaiah/cranio/recorder"
	"github.com/ayoisaiah/cranio/sensor"
	"github.com/ayoisaiah/cranio/store"
	"github.com/ayoisaiah/cranio/workflow"
)

// sensorSink feeds sensor readings to the workflow and reports a lost
// sensor as a trigger.
type sensorSink struct {
	*workflow.Dispatcher
}

func (s sensorSink) Lost(ctx context.Context, err error) {
	serr := s.Submit(ctx, workflow.Input{
		Trigger: workflow.SensorLost,
		Err:     workflow.ErrSensorLost.Wrap(err),
	})
	if serr != nil {
		slog.WarnContext(ctx, "reporting lost sensor", slog.Any("error", serr))
	}
}

func newSession(now time.Time) *models.Session {
	return &models.Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		StartedAt: now.UTC(),
		Version:   config.Version,
	}
}

func newSensor(cfg *config.Config, log *slog.Logger) (sensor.Sensor, error) {
	return sensor.New(sensor.Kind(cfg.Sensor.Kind), sensor.ImadaOptions{
		Logger:          log,
		SerialNumber:    cfg.Sensor.SerialNumber,
		Port:            cfg.Sensor.Port,
		BaudRate:        cfg.Sensor.BaudRate,
		TurnsInFullTurn: cfg.Sensor.TurnsInFullTurn,
	})
}

// patientIDs returns the ids of the known patients in natural order.
func patientIDs(db store.DB) ([]string, error) {
	patients, err := db.GetPatients()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(patients))
	for _, p := range patients {
		ids = append(ids, p.ID)
	}

	slices.SortFunc(ids, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}

		return 0
	})

	return ids, nil
}

// newMachine starts a software session and returns the workflow for it.
func newMachine(e *env) (*workflow.Machine, error) {
	sess := newSession(time.Now())

	if err := e.db.SaveSession(sess); err != nil {
		return nil, err
	}

	e.log.Info(
		"session started",
		slog.String("session_id", sess.ID),
		slog.String("version", sess.Version),
	)

	return workflow.New(workflow.Env{
		Session:          sess,
		Store:            e.db,
		Logger:           e.log.Logger,
		DistractorType:   e.cfg.Distractor.Type,
		PlaceholderCount: e.cfg.Workflow.PlaceholderCount,
		DistractorCount:  e.cfg.Workflow.DistractorCount,
	}), nil
}

// record runs the dispatcher, the sensor pump and the terminal interface
// until the operator quits or ctx is cancelled.
func record(ctx context.Context, e *env) error {
	m, err := newMachine(e)
	if err != nil {
		return err
	}

	s, err := newSensor(e.cfg, e.log.Logger)
	if err != nil {
		return err
	}

	patients, err := patientIDs(e.db)
	if err != nil {
		return err
	}

	d := workflow.NewDispatcher(m, 0)
	pump := sensor.NewPump(s, sensorSink{d}, e.cfg.Sensor.PollInterval, e.log.Logger)

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)

	defer cancel()

	g.Go(func() error {
		return d.Run(ctx)
	})

	if name := e.cfg.Operator.Name; name != "" {
		err = d.Submit(ctx, workflow.Input{
			Trigger:  workflow.SetOperator,
			Operator: name,
		})
		if err != nil {
			cancel()
			return errors.Join(err, g.Wait())
		}
	}

	model := recorder.New(ctx, d, pump, recorder.Options{
		Logger:         e.log.Logger,
		Sessions:       e.db,
		DocumentCmd:    e.cfg.Settings.Cmd,
		Patients:       patients,
		DarkTheme:      e.cfg.Display.DarkTheme,
		TwentyFourHour: e.cfg.Display.TwentyFourHour,
		Notify:         e.cfg.Notifications.Enabled,
	})

	g.Go(func() error {
		defer cancel()
		defer pump.Disconnect()

		_, err := tea.NewProgram(
			model,
			tea.WithContext(ctx),
			tea.WithAltScreen(),
		).Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}

		return err
	})

	return g.Wait()
}
