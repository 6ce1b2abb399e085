package config_test

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/cranio/internal/config"
	"github.com/ayoisaiah/cranio/internal/models"
	"github.com/ayoisaiah/cranio/internal/testutil"
)

// defaultConfig returns a new Config instance with default values.
func defaultConfig() *config.Config {
	return &config.Config{
		Sensor: config.SensorConfig{
			Kind:            "imada",
			SerialNumber:    "FTSLQ6QIA",
			BaudRate:        19200,
			TurnsInFullTurn: 3,
			PollInterval:    20 * time.Millisecond,
		},
		Workflow: config.WorkflowConfig{
			PlaceholderCount: 3,
			DistractorCount:  2,
		},
		Distractor: config.DistractorConfig{
			Type: models.KLSArnaud,
		},
		Storage: config.StorageConfig{
			Driver: config.DriverBolt,
		},
		Notifications: config.NotificationConfig{
			Enabled: true,
		},
		Display: config.DisplayConfig{
			DarkTheme:      true,
			TwentyFourHour: true,
		},
		Log: config.LogConfig{
			Level: "info",
		},
	}
}

func TestViperWriteConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	cfg, err := config.New(config.WithViperConfig(configPath))
	require.NoError(t, err)

	assert.Equal(t, defaultConfig(), cfg)
	assert.FileExists(t, configPath)

	// the written file must load back to the same values
	again, err := config.New(config.WithViperConfig(configPath))
	require.NoError(t, err)

	assert.Equal(t, cfg, again)
	require.NoError(t, cfg.Validate())
}

func TestViperReadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	err := testutil.CopyFile("testdata/modified_config.yml", configPath)
	require.NoError(t, err)

	want := &config.Config{
		Operator: config.OperatorConfig{
			Name: "Dr. Ada",
		},
		Sensor: config.SensorConfig{
			Kind:            "dummy",
			SerialNumber:    "FTSLQ6QIA",
			BaudRate:        19200,
			TurnsInFullTurn: 4,
			PollInterval:    50 * time.Millisecond,
		},
		Workflow: config.WorkflowConfig{
			PlaceholderCount: 5,
			DistractorCount:  1,
		},
		Distractor: config.DistractorConfig{
			Type: models.KLSRed,
		},
		Storage: config.StorageConfig{
			Driver: config.DriverBolt,
		},
		Settings: config.SettingsConfig{
			Cmd: `notify-send "document saved"`,
		},
		Display: config.DisplayConfig{
			DarkTheme: true,
		},
		Log: config.LogConfig{
			Level: "debug",
		},
	}

	cfg, err := config.New(config.WithViperConfig(configPath))
	require.NoError(t, err)

	assert.Equal(t, want, cfg)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestViperEnvOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	t.Setenv("CRANIO_OPERATOR_NAME", "Nurse Joy")
	t.Setenv("CRANIO_WORKFLOW_PLACEHOLDER_COUNT", "7")

	cfg, err := config.New(config.WithViperConfig(configPath))
	require.NoError(t, err)

	assert.Equal(t, "Nurse Joy", cfg.Operator.Name)
	assert.Equal(t, 7, cfg.Workflow.PlaceholderCount)
}

func TestSystemPathsSurviveViper(t *testing.T) {
	dir := t.TempDir()
	sys := config.SystemConfig{
		ConfigPath: filepath.Join(dir, "config.yml"),
		DBPath:     filepath.Join(dir, "cranio.db"),
	}

	cfg, err := config.New(
		config.WithSystemPaths(sys),
		config.WithViperConfig(sys.ConfigPath),
	)
	require.NoError(t, err)

	assert.Equal(t, sys, cfg.System)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		modify  func(c *config.Config)
		name    string
		wantErr bool
	}{
		{
			name:   "defaults",
			modify: func(*config.Config) {},
		},
		{
			name:    "unknown sensor kind",
			modify:  func(c *config.Config) { c.Sensor.Kind = "strain-gauge" },
			wantErr: true,
		},
		{
			name: "imada without serial number or port",
			modify: func(c *config.Config) {
				c.Sensor.SerialNumber = ""
				c.Sensor.Port = ""
			},
			wantErr: true,
		},
		{
			name: "dummy without serial number",
			modify: func(c *config.Config) {
				c.Sensor.Kind = "dummy"
				c.Sensor.SerialNumber = ""
			},
		},
		{
			name:    "zero turns",
			modify:  func(c *config.Config) { c.Sensor.TurnsInFullTurn = 0 },
			wantErr: true,
		},
		{
			name:    "poll interval too short",
			modify:  func(c *config.Config) { c.Sensor.PollInterval = time.Millisecond },
			wantErr: true,
		},
		{
			name:    "no placeholders",
			modify:  func(c *config.Config) { c.Workflow.PlaceholderCount = 0 },
			wantErr: true,
		},
		{
			name:    "too many distractors",
			modify:  func(c *config.Config) { c.Workflow.DistractorCount = 11 },
			wantErr: true,
		},
		{
			name:    "unknown distractor",
			modify:  func(c *config.Config) { c.Distractor.Type = "Acme" },
			wantErr: true,
		},
		{
			name:    "postgres without dsn",
			modify:  func(c *config.Config) { c.Storage.Driver = config.DriverPostgres },
			wantErr: true,
		},
		{
			name: "postgres with dsn",
			modify: func(c *config.Config) {
				c.Storage.Driver = config.DriverPostgres
				c.Storage.DSN = "host=localhost dbname=cranio"
			},
		},
		{
			name:    "unknown driver",
			modify:  func(c *config.Config) { c.Storage.Driver = "sqlite" },
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.modify(cfg)

			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}
