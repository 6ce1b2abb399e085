package app

import (
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/cranio/export"
)

var (
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	operatorFlag = &cli.StringFlag{
		Name:    "operator",
		Aliases: []string{"o"},
		Usage:   "Person responsible for the distraction",
	}

	sensorFlag = &cli.StringFlag{
		Name:  "sensor",
		Usage: "Torque sensor to use: imada or dummy",
	}

	portFlag = &cli.StringFlag{
		Name:  "port",
		Usage: "Serial port of the Imada gauge (looked up by serial number if empty)",
	}

	distractorTypeFlag = &cli.StringFlag{
		Name:  "distractor-type",
		Usage: "Distractor model recorded on new documents",
	}

	placeholdersFlag = &cli.UintFlag{
		Name:  "placeholders",
		Usage: "Number of placeholder events created when a measurement stops (default: 3)",
	}

	distractorsFlag = &cli.UintFlag{
		Name:  "distractors",
		Usage: "Number of distractors installed on the patient (default: 2)",
	}

	pollIntervalFlag = &cli.DurationFlag{
		Name:  "poll-interval",
		Usage: "Time between sensor readings (default: 20ms)",
	}

	storageFlag = &cli.StringFlag{
		Name:  "storage",
		Usage: "Storage driver: bolt or postgres",
	}

	dsnFlag = &cli.StringFlag{
		Name:  "dsn",
		Usage: "Postgres connection string for --storage postgres",
	}

	documentCmdFlag = &cli.StringFlag{
		Name:    "document-cmd",
		Aliases: []string{"cmd"},
		Usage:   "Execute an arbitrary command after each confirmed document. The document id is in $CRANIO_DOCUMENT_ID",
	}

	disableNotificationFlag = &cli.BoolFlag{
		Name:    "disable-notification",
		Aliases: []string{"d"},
		Usage:   "Disable the system notification that appears when the sensor is lost",
	}

	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn or error",
	}

	periodFlag = &cli.StringFlag{
		Name:    "period",
		Aliases: []string{"p"},
		Usage:   "Specify a time period for listing documents. Options: all-time, today, yesterday, 7days, 30days, 90days, 365days",
	}

	sinceFlag = &cli.StringFlag{
		Name:    "since",
		Aliases: []string{"s"},
		Usage:   "Only documents started on or after this date (e.g. '2026-03-01' or '3 days ago')",
	}

	untilFlag = &cli.StringFlag{
		Name:    "until",
		Aliases: []string{"u"},
		Usage:   "Only documents started on or before this date",
	}

	patientFlag = &cli.StringFlag{
		Name:  "patient",
		Usage: "Only documents of this patient",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the output as JSON",
	}

	yamlFlag = &cli.BoolFlag{
		Name:  "yaml",
		Usage: "Print the output as YAML",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Export format: csv or xlsx",
		Value:   string(export.FormatCSV),
	}

	dirFlag = &cli.StringFlag{
		Name:  "dir",
		Usage: "Directory to write the export to (default: the exports directory)",
	}
)

// globalFlags configure the recorder and every subcommand.
var globalFlags = []cli.Flag{
	noColorFlag,
	operatorFlag,
	sensorFlag,
	portFlag,
	distractorTypeFlag,
	placeholdersFlag,
	distractorsFlag,
	pollIntervalFlag,
	storageFlag,
	dsnFlag,
	documentCmdFlag,
	disableNotificationFlag,
	logLevelFlag,
}

var filterFlags = []cli.Flag{
	periodFlag,
	sinceFlag,
	untilFlag,
	patientFlag,
}
