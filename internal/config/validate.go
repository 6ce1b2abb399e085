package config

import (
	"slices"
	"strings"
	"time"

	"github.com/ayoisaiah/cranio/internal/models"
)

var (
	minPlaceholders = 1
	maxPlaceholders = 30

	minDistractors = 1
	maxDistractors = 10

	minPollInterval = 5 * time.Millisecond
	maxPollInterval = 1 * time.Second

	sensorKinds    = []string{"imada", "dummy"}
	storageDrivers = []string{DriverBolt, DriverPostgres}
)

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if err := c.validateSensor(); err != nil {
		return err
	}

	if err := c.validateWorkflow(); err != nil {
		return err
	}

	if _, ok := models.LookupDistractor(c.Distractor.Type); !ok {
		return errUnknownDistractor.Fmt(c.Distractor.Type)
	}

	return c.validateStorage()
}

func (c *Config) validateSensor() error {
	s := c.Sensor

	if !slices.Contains(sensorKinds, s.Kind) {
		return errUnknownSensorKind.Fmt(s.Kind)
	}

	if s.Kind == "imada" {
		if strings.TrimSpace(s.SerialNumber) == "" && strings.TrimSpace(s.Port) == "" {
			return errNoSensorAddress
		}

		if s.BaudRate <= 0 {
			return errInvalidBaudRate.Fmt(s.BaudRate)
		}
	}

	if s.TurnsInFullTurn <= 0 {
		return errInvalidTurns.Fmt(s.TurnsInFullTurn)
	}

	if s.PollInterval < minPollInterval || s.PollInterval > maxPollInterval {
		return errInvalidPollInterval.Fmt(minPollInterval, maxPollInterval, s.PollInterval)
	}

	return nil
}

func (c *Config) validateWorkflow() error {
	w := c.Workflow

	if w.PlaceholderCount < minPlaceholders || w.PlaceholderCount > maxPlaceholders {
		return errInvalidPlaceholders.Fmt(minPlaceholders, maxPlaceholders, w.PlaceholderCount)
	}

	if w.DistractorCount < minDistractors || w.DistractorCount > maxDistractors {
		return errInvalidDistractors.Fmt(minDistractors, maxDistractors, w.DistractorCount)
	}

	return nil
}

func (c *Config) validateStorage() error {
	if !slices.Contains(storageDrivers, c.Storage.Driver) {
		return errUnknownDriver.Fmt(c.Storage.Driver)
	}

	if c.Storage.Driver == DriverPostgres && strings.TrimSpace(c.Storage.DSN) == "" {
		return errMissingDSN
	}

	return nil
}
