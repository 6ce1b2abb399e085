package config

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/ayoisaiah/cranio/internal/models"
)

const asciiLogo = `
 ██████╗██████╗  █████╗ ███╗   ██╗██╗ ██████╗
██╔════╝██╔══██╗██╔══██╗████╗  ██║██║██╔═══██╗
██║     ██████╔╝███████║██╔██╗ ██║██║██║   ██║
██║     ██╔══██╗██╔══██║██║╚██╗██║██║██║   ██║
╚██████╗██║  ██║██║  ██║██║ ╚████║██║╚██████╔╝
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝ ╚═════╝`

// PromptOptions holds the user's responses to the configuration prompts.
type PromptOptions struct {
	Operator       string
	SensorKind     string
	DistractorType string
}

// WithPromptConfig returns an Option that asks for the essential settings
// when no config file exists yet.
func WithPromptConfig(configPath string) Option {
	return func(c *Config) error {
		_, err := os.Stat(configPath)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return err
		}

		opts, err := promptUser()
		if err != nil {
			return errPrompt.Wrap(err)
		}

		applyPromptOptions(c, opts)

		return nil
	}
}

// promptUser handles the interactive configuration process.
func promptUser() (PromptOptions, error) {
	opts := PromptOptions{
		SensorKind:     "imada",
		DistractorType: models.KLSArnaud,
	}

	pterm.Println(asciiLogo)

	_ = putils.BulletListFromString(`Follow the prompts below to configure cranio for the first time.
Press ENTER to accept the defaults.
Edit the config file with 'cranio edit-config' to change any settings.`, " ").
		Render()

	distractors := make([]huh.Option[string], 0, len(models.Distractors))
	for _, d := range models.Distractors {
		distractors = append(distractors, huh.NewOption(d.Type, d.Type))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Operator").
				Description("Person responsible for the distraction").
				Value(&opts.Operator),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Torque sensor").
				Options(
					huh.NewOption("Imada HTG2-4 (USB serial)", "imada"),
					huh.NewOption("Dummy (random values)", "dummy"),
				).
				Value(&opts.SensorKind),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Distractor").
				Options(distractors...).
				Value(&opts.DistractorType),
		),
	)

	err := form.Run()
	if err != nil {
		return opts, err
	}

	return opts, nil
}

// applyPromptOptions applies the user's prompt responses to the configuration.
func applyPromptOptions(c *Config, opts PromptOptions) {
	c.Operator.Name = opts.Operator
	c.Sensor.Kind = opts.SensorKind
	c.Distractor.Type = opts.DistractorType
}
