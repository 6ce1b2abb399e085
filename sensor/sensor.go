// Package sensor reads torque from the supported sensors and feeds the
// readings to the workflow.
package sensor

import (
	"context"
	"time"

	"github.com/ayoisaiah/cranio/internal/apperr"
	"github.com/ayoisaiah/cranio/internal/models"
)

// Kind names a sensor implementation in the config file.
type Kind string

const (
	KindImada Kind = "imada"
	KindDummy Kind = "dummy"
)

var (
	// ErrDisconnected is returned by Read once the sensor is gone. It is
	// terminal: the sensor must be opened again.
	ErrDisconnected = &apperr.Error{
		Message: "sensor %s stopped responding",
	}

	ErrNotOpen = &apperr.Error{
		Message: "sensor %s is not open",
	}

	ErrTelegram = &apperr.Error{
		Message: "invalid telegram %q",
	}

	ErrPortNotFound = &apperr.Error{
		Message: "no serial device found with serial number %s",
	}

	ErrUnknownKind = &apperr.Error{
		Message: "unknown sensor kind %q: use imada or dummy",
	}
)

// Reading is one torque value and the time it was taken.
type Reading struct {
	At     time.Time
	Torque float64
}

// Sensor is a source of torque readings.
type Sensor interface {
	Info() models.SensorInfo
	Open() error
	// Read blocks until the next reading is available. It returns
	// ErrDisconnected once the sensor can no longer be read.
	Read(ctx context.Context) (Reading, error)
	Close() error
}

// New returns an unopened sensor of the given kind. The options are only
// used by the Imada gauge.
func New(kind Kind, opts ImadaOptions) (Sensor, error) {
	switch kind {
	case KindImada:
		return NewImada(opts), nil
	case KindDummy:
		return NewDummy(), nil
	default:
		return nil, ErrUnknownKind.Fmt(kind)
	}
}
