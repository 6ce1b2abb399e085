// Package config loads cranio's settings from the config file, the
// environment, command-line flags and the first-run prompt.
package config

import (
	"io"
	"log/slog"
	"os"
	"time"
)

type (
	// Config holds all configuration settings
	Config struct {
		Operator      OperatorConfig     `mapstructure:"operator"`
		Sensor        SensorConfig       `mapstructure:"sensor"`
		Distractor    DistractorConfig   `mapstructure:"distractor"`
		Storage       StorageConfig      `mapstructure:"storage"`
		Settings      SettingsConfig     `mapstructure:"settings"`
		Display       DisplayConfig      `mapstructure:"display"`
		Log           LogConfig          `mapstructure:"log"`
		System        SystemConfig       `mapstructure:"-"`
		Workflow      WorkflowConfig     `mapstructure:"workflow"`
		Notifications NotificationConfig `mapstructure:"notifications"`
	}

	// OperatorConfig identifies the person responsible for the distraction
	OperatorConfig struct {
		Name string `mapstructure:"name"`
	}

	// SensorConfig selects and configures the torque sensor
	SensorConfig struct {
		Kind            string        `mapstructure:"kind"`
		SerialNumber    string        `mapstructure:"serial_number"`
		Port            string        `mapstructure:"port"`
		BaudRate        int           `mapstructure:"baud_rate"`
		TurnsInFullTurn float64       `mapstructure:"turns_in_full_turn"`
		PollInterval    time.Duration `mapstructure:"poll_interval"`
	}

	// WorkflowConfig holds measurement cycle settings
	WorkflowConfig struct {
		PlaceholderCount int `mapstructure:"placeholder_count"`
		DistractorCount  int `mapstructure:"distractor_count"`
	}

	// DistractorConfig holds the distractor model in use
	DistractorConfig struct {
		Type string `mapstructure:"type"`
	}

	// StorageConfig selects the database
	StorageConfig struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	}

	// SettingsConfig holds miscellaneous settings
	SettingsConfig struct {
		// Cmd runs after every confirmed document.
		Cmd string `mapstructure:"cmd"`
	}

	// NotificationConfig holds notification settings
	NotificationConfig struct {
		Enabled bool `mapstructure:"enabled"`
	}

	// DisplayConfig holds display-related settings
	DisplayConfig struct {
		DarkTheme      bool `mapstructure:"dark_theme"`
		TwentyFourHour bool `mapstructure:"24hr_clock"`
	}

	// LogConfig holds logging settings
	LogConfig struct {
		Level string `mapstructure:"level"`
	}

	// SystemConfig holds paths resolved at startup
	SystemConfig struct {
		ConfigPath string
		DBPath     string
		LogPath    string
		ExportDir  string
	}

	// Option is a function that modifies Config
	Option func(*Config) error
)

const Version = "v0.6.0"

const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// New creates a new Config and applies options in order.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	return cfg, nil
}

// WithSystemPaths records where the config file, database and logs live.
func WithSystemPaths(sys SystemConfig) Option {
	return func(c *Config) error {
		c.System = sys
		return nil
	}
}

// LogLevel converts the configured level name to a slog level.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Log.Level))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}
