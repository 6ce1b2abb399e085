// Package app defines cranio's command-line interface.
package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/cranio/internal/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the cranio app instance.
func Get() *cli.App {
	return &cli.App{
		Name: "cranio",
		Usage: `
		Cranio records the torque applied to a cranial distractor during
		distraction, together with the annotated distraction events and the
		operator's notes.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
			{
				Name:   "patients",
				Usage:  "List the known patients",
				Flags:  []cli.Flag{jsonFlag, yamlFlag},
				Action: patientsAction,
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Register one or more patients",
						ArgsUsage: "<patient-id>...",
						Action:    addPatientsAction,
					},
				},
			},
			{
				Name:    "documents",
				Aliases: []string{"ls"},
				Usage:   "List recorded documents. Defaults to all documents",
				Flags:   append([]cli.Flag{jsonFlag, yamlFlag}, filterFlags...),
				Action:  documentsAction,
			},
			{
				Name:      "show",
				Usage:     "Print a document with its events",
				ArgsUsage: "<document-id>",
				Flags:     []cli.Flag{jsonFlag, yamlFlag},
				Action:    showAction,
			},
			{
				Name:      "export",
				Usage:     "Export the rows of one or more documents to CSV or XLSX",
				ArgsUsage: "<document-id>...",
				Flags:     []cli.Flag{formatFlag, dirFlag},
				Action:    exportAction,
			},
			{
				Name:   "ports",
				Usage:  "List serial ports and the serial numbers of attached devices",
				Flags:  []cli.Flag{jsonFlag},
				Action: portsAction,
			},
		},
		Flags:  globalFlags,
		Action: defaultAction,
		Before: beforeAction,
		After:  afterAction,
	}
}
