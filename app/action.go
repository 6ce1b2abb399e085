package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/cranio/internal/apperr"
	"github.com/ayoisaiah/cranio/internal/config"
	"github.com/ayoisaiah/cranio/internal/logging"
	"github.com/ayoisaiah/cranio/internal/osutil"
	"github.com/ayoisaiah/cranio/internal/pathutil"
	"github.com/ayoisaiah/cranio/internal/ui"
	"github.com/ayoisaiah/cranio/store"
	"github.com/ayoisaiah/cranio/store/sqlstore"
)

const (
	envNoColor       = "NO_COLOR"
	envCranioNoColor = "CRANIO_NO_COLOR"
)

var errUnknownDriver = &apperr.Error{
	Message: "unknown storage driver %q",
}

// env is what every command works with.
type env struct {
	cfg *config.Config
	db  store.DB
	log *logging.Logger
}

func (e *env) Close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			slog.Warn("closing database", slog.Any("error", err))
		}
	}

	_ = e.log.Close()
}

func systemPaths() (config.SystemConfig, error) {
	if err := pathutil.Initialize(); err != nil {
		return config.SystemConfig{}, err
	}

	return config.SystemConfig{
		ConfigPath: pathutil.ConfigFilePath(),
		DBPath:     pathutil.DBFilePath(),
		LogPath:    pathutil.LogFilePath(),
		ExportDir:  pathutil.ExportDir(),
	}, nil
}

// loadConfig resolves the configuration from the config file, the
// environment and the command line. The first-run prompt is only shown to
// the recorder.
func loadConfig(ctx *cli.Context, interactive bool) (*config.Config, error) {
	sys, err := systemPaths()
	if err != nil {
		return nil, err
	}

	opts := []config.Option{config.WithSystemPaths(sys)}

	if interactive {
		opts = append(opts, config.WithPromptConfig(sys.ConfigPath))
	}

	opts = append(
		opts,
		config.WithViperConfig(sys.ConfigPath),
		config.WithCLIConfig(ctx),
	)

	cfg, err := config.New(opts...)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ui.DarkTheme = cfg.Display.DarkTheme

	return cfg, nil
}

// openDB connects to the configured database.
func openDB(cfg *config.Config) (store.DB, error) {
	switch cfg.Storage.Driver {
	case config.DriverBolt:
		db, err := store.NewClient(cfg.System.DBPath)
		if err != nil {
			return nil, err
		}

		return db, nil
	case config.DriverPostgres:
		db, err := sqlstore.Open(cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}

		return db, nil
	}

	return nil, errUnknownDriver.Fmt(cfg.Storage.Driver)
}

func setup(ctx *cli.Context, interactive bool) (*env, error) {
	cfg, err := loadConfig(ctx, interactive)
	if err != nil {
		return nil, err
	}

	log := logging.New(cfg.System.LogPath, cfg.LogLevel())

	db, err := openDB(cfg)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	return &env{cfg: cfg, db: db, log: log}, nil
}

// defaultAction runs the recorder.
func defaultAction(ctx *cli.Context) error {
	e, err := setup(ctx, true)
	if err != nil {
		return err
	}

	defer e.Close()

	return record(ctx.Context, e)
}

// editConfigAction handles the edit-config command which opens the cranio
// config file in the user's default text editor.
func editConfigAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx, false)
	if err != nil {
		return err
	}

	cmd := exec.Command(osutil.Editor(), cfg.System.ConfigPath)

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

func beforeAction(ctx *cli.Context) error {
	// Override the default help template
	cli.AppHelpTemplate = helpText()

	oldVersionPrinter := cli.VersionPrinter
	cli.VersionPrinter = func(c *cli.Context) {
		oldVersionPrinter(c)
		fmt.Printf(
			"https://github.com/ayoisaiah/cranio/releases/%s\n",
			c.App.Version,
		)
	}

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	if _, exists := os.LookupEnv(envCranioNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	return nil
}

func afterAction(ctx *cli.Context) error {
	slog.InfoContext(ctx.Context, "exiting cranio")

	return nil
}
