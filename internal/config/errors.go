package config

import "github.com/ayoisaiah/cranio/internal/apperr"

var (
	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing default config failed",
	}

	errPrompt = &apperr.Error{
		Message: "first-run prompt failed",
	}

	errUnknownSensorKind = &apperr.Error{
		Message: "unknown sensor kind %q (must be imada or dummy)",
	}

	errNoSensorAddress = &apperr.Error{
		Message: "an imada sensor needs a serial number or a port",
	}

	errInvalidBaudRate = &apperr.Error{
		Message: "baud rate must be positive, got %d",
	}

	errInvalidTurns = &apperr.Error{
		Message: "turns in a full turn must be positive, got %v",
	}

	errInvalidPollInterval = &apperr.Error{
		Message: "poll interval must be between %v and %v, got %v",
	}

	errInvalidPlaceholders = &apperr.Error{
		Message: "placeholder count must be between %d and %d, got %d",
	}

	errInvalidDistractors = &apperr.Error{
		Message: "distractor count must be between %d and %d, got %d",
	}

	errUnknownDistractor = &apperr.Error{
		Message: "unknown distractor type %q",
	}

	errUnknownDriver = &apperr.Error{
		Message: "unknown storage driver %q (must be bolt or postgres)",
	}

	errMissingDSN = &apperr.Error{
		Message: "the postgres storage driver needs storage.dsn",
	}

	errInvalidPeriod = &apperr.Error{
		Message: "unknown period %q",
	}

	errInvalidDateRange = &apperr.Error{
		Message: "the start time must be earlier than the end time",
	}
)
