package app

import (
	"io"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/cranio/export"
	"github.com/ayoisaiah/cranio/internal/osutil"
	"github.com/ayoisaiah/cranio/internal/ui"
	"github.com/ayoisaiah/cranio/sensor"
	"github.com/ayoisaiah/cranio/store"
)

// exportDocuments writes each document to dir and returns the created files.
func exportDocuments(
	db store.DB,
	dir string,
	format export.Format,
	ids []string,
) ([]string, error) {
	if err := os.MkdirAll(dir, osutil.DirPermission); err != nil {
		return nil, err
	}

	var files []string

	for _, id := range ids {
		b, err := export.Load(db, id)
		if err != nil {
			return files, err
		}

		switch format {
		case export.FormatXLSX:
			path, err := export.XLSX(dir, b)
			if err != nil {
				return files, err
			}

			files = append(files, path)
		default:
			paths, err := export.CSV(dir, b)
			files = append(files, paths...)

			if err != nil {
				return files, err
			}
		}
	}

	return files, nil
}

// exportAction writes the stored rows of documents to CSV or XLSX files.
func exportAction(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errMissingArg.Fmt("document id")
	}

	format, err := export.ParseFormat(ctx.String("format"))
	if err != nil {
		return err
	}

	e, err := setup(ctx, false)
	if err != nil {
		return err
	}

	defer e.Close()

	dir := ctx.String("dir")
	if dir == "" {
		dir = e.cfg.System.ExportDir
	}

	files, err := exportDocuments(e.db, dir, format, ctx.Args().Slice())

	for _, f := range files {
		pterm.Success.Printfln("wrote %s", f)
	}

	return err
}

func printPorts(w io.Writer, ports []sensor.PortInfo, serialNumber string) error {
	rows := make([][]string, 0, len(ports))

	for _, p := range ports {
		serial := p.SerialNumber
		if serial != "" && serial == serialNumber {
			serial = ui.Green(serial + " (configured)")
		}

		usb := ""
		if p.IsUSB {
			usb = p.VID + ":" + p.PID
		}

		rows = append(rows, []string{p.Name, serial, p.Product, usb})
	}

	return ui.PrintTable(w, []string{"PORT", "SERIAL NUMBER", "PRODUCT", "USB ID"}, rows)
}

// portsAction lists the serial ports so the Imada gauge can be identified.
func portsAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx, false)
	if err != nil {
		return err
	}

	ports, err := sensor.Ports()
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return encode(ctx.App.Writer, ports, outputJSON)
	}

	if len(ports) == 0 {
		pterm.Info.Println("No serial ports found")
		return nil
	}

	pterm.Info.Println(strconv.Itoa(len(ports)) + " serial port(s) found")

	return printPorts(ctx.App.Writer, ports, cfg.Sensor.SerialNumber)
}
