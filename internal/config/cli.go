package config

import (
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// CLIOptions represents command-line configuration options.
type CLIOptions struct {
	Operator         string
	SensorKind       string
	Port             string
	DistractorType   string
	StorageDriver    string
	DSN              string
	DocumentCmd      string
	LogLevel         string
	PollInterval     time.Duration
	PlaceholderCount uint
	DistractorCount  uint
	DisableNotify    bool
}

// WithCLIConfig returns an Option that loads configuration from CLI flags.
// Flags override the config file.
func WithCLIConfig(ctx *cli.Context) Option {
	return func(c *Config) error {
		opts := CLIOptions{
			Operator:         ctx.String("operator"),
			SensorKind:       ctx.String("sensor"),
			Port:             ctx.String("port"),
			DistractorType:   ctx.String("distractor-type"),
			StorageDriver:    ctx.String("storage"),
			DSN:              ctx.String("dsn"),
			DocumentCmd:      ctx.String("document-cmd"),
			LogLevel:         ctx.String("log-level"),
			PollInterval:     ctx.Duration("poll-interval"),
			PlaceholderCount: ctx.Uint("placeholders"),
			DistractorCount:  ctx.Uint("distractors"),
			DisableNotify:    ctx.Bool("disable-notification"),
		}

		applyCLIOptions(c, &opts)

		return nil
	}
}

func setIfPresent(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

// applyCLIOptions applies CLI options to the config.
func applyCLIOptions(c *Config, opts *CLIOptions) {
	setIfPresent(&c.Operator.Name, opts.Operator)
	setIfPresent(&c.Sensor.Kind, opts.SensorKind)
	setIfPresent(&c.Sensor.Port, opts.Port)
	setIfPresent(&c.Distractor.Type, opts.DistractorType)
	setIfPresent(&c.Storage.Driver, opts.StorageDriver)
	setIfPresent(&c.Storage.DSN, opts.DSN)
	setIfPresent(&c.Settings.Cmd, opts.DocumentCmd)
	setIfPresent(&c.Log.Level, opts.LogLevel)

	if opts.PollInterval > 0 {
		c.Sensor.PollInterval = opts.PollInterval
	}

	if opts.PlaceholderCount > 0 {
		c.Workflow.PlaceholderCount = int(opts.PlaceholderCount)
	}

	if opts.DistractorCount > 0 {
		c.Workflow.DistractorCount = int(opts.DistractorCount)
	}

	if opts.DisableNotify {
		c.Notifications.Enabled = false
	}
}
