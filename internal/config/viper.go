package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/ayoisaiah/cranio/internal/models"
)

const envPrefix = "CRANIO"

const (
	keyOperatorName         = "operator.name"
	keySensorKind           = "sensor.kind"
	keySensorSerialNumber   = "sensor.serial_number"
	keySensorPort           = "sensor.port"
	keySensorBaudRate       = "sensor.baud_rate"
	keySensorTurns          = "sensor.turns_in_full_turn"
	keySensorPollInterval   = "sensor.poll_interval"
	keyPlaceholderCount     = "workflow.placeholder_count"
	keyDistractorCount      = "workflow.distractor_count"
	keyDistractorType       = "distractor.type"
	keyStorageDriver        = "storage.driver"
	keyStorageDSN           = "storage.dsn"
	keySettingsCmd          = "settings.cmd"
	keyNotificationsEnabled = "notifications.enabled"
	keyDarkTheme            = "display.dark_theme"
	keyTwentyFourHour       = "display.24hr_clock"
	keyLogLevel             = "log.level"
)

// WithViperConfig returns an Option that loads configuration from the YAML
// file at configPath and from CRANIO_* environment variables. The file is
// written with default values if it does not exist.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		setupViper(v, c)

		err := v.ReadInConfig()
		if err == nil {
			return loadViperConfig(v, c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return errReadConfig.Wrap(err)
		}

		if err := v.WriteConfig(); err != nil {
			return errWriteConfig.Wrap(err)
		}

		return loadViperConfig(v, c)
	}
}

// setupViper sets defaults, preferring values already present in c (from
// the first-run prompt).
func setupViper(v *viper.Viper, c *Config) {
	v.SetDefault(keyOperatorName, "")
	v.SetDefault(keySensorKind, "imada")
	v.SetDefault(keySensorSerialNumber, "FTSLQ6QIA")
	v.SetDefault(keySensorPort, "")
	v.SetDefault(keySensorBaudRate, 19200)
	v.SetDefault(keySensorTurns, 3)
	v.SetDefault(keySensorPollInterval, "20ms")
	v.SetDefault(keyPlaceholderCount, 3)
	v.SetDefault(keyDistractorCount, 2)
	v.SetDefault(keyDistractorType, models.KLSArnaud)
	v.SetDefault(keyStorageDriver, DriverBolt)
	v.SetDefault(keyStorageDSN, "")
	v.SetDefault(keySettingsCmd, "")
	v.SetDefault(keyNotificationsEnabled, true)
	v.SetDefault(keyDarkTheme, true)
	v.SetDefault(keyTwentyFourHour, true)
	v.SetDefault(keyLogLevel, "info")

	if c.Operator.Name != "" {
		v.SetDefault(keyOperatorName, c.Operator.Name)
	}

	if c.Sensor.Kind != "" {
		v.SetDefault(keySensorKind, c.Sensor.Kind)
	}

	if c.Distractor.Type != "" {
		v.SetDefault(keyDistractorType, c.Distractor.Type)
	}
}

// loadViperConfig loads configuration from Viper into the Config struct.
func loadViperConfig(v *viper.Viper, c *Config) error {
	sys := c.System

	err := v.Unmarshal(c)
	if err != nil {
		return errReadConfig.Wrap(err)
	}

	c.System = sys

	return nil
}
