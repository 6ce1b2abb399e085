package sensor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/ayoisaiah/cranio/internal/models"
)

// ImadaSerialNumber is the USB serial number of the gauge used in theatre.
const ImadaSerialNumber = "FTSLQ6QIA"

const (
	imadaEOL             = '\r'
	imadaPoll            = "D\r"
	imadaBaudRate        = 19200
	imadaReadTimeout     = 20 * time.Millisecond
	imadaMaxEmptyReads   = 50
	imadaTurnsInFullTurn = 3
)

var telegramValue = regexp.MustCompile(`[-+]?(\d*\.\d+|\d+)`)

// Telegram is a decoded Imada display value.
type Telegram struct {
	Unit      string
	Mode      string
	Condition string
	Value     float64
}

// DecodeTelegram parses a display value such as "+0.123NPO". The value is
// the first number in the telegram and the last three characters are the
// unit, mode and condition flags.
func DecodeTelegram(s string) (Telegram, error) {
	s = strings.TrimRight(s, string(imadaEOL))

	match := telegramValue.FindString(s)
	if match == "" || len(s) < 3 {
		return Telegram{}, ErrTelegram.Fmt(s)
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return Telegram{}, ErrTelegram.Fmt(s).Wrap(err)
	}

	flags := s[len(s)-3:]

	return Telegram{
		Value:     v,
		Unit:      flags[0:1],
		Mode:      flags[1:2],
		Condition: flags[2:3],
	}, nil
}

// PortInfo describes a serial port.
type PortInfo struct {
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Product      string `json:"product"`
	VID          string `json:"vid"`
	PID          string `json:"pid"`
	IsUSB        bool   `json:"is_usb"`
}

// Ports lists the serial ports of the machine.
func Ports() ([]PortInfo, error) {
	list, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	ports := make([]PortInfo, 0, len(list))

	for _, p := range list {
		ports = append(ports, PortInfo{
			Name:         p.Name,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
			VID:          p.VID,
			PID:          p.PID,
			IsUSB:        p.IsUSB,
		})
	}

	return ports, nil
}

// FindPort returns the name of the port whose device has the given serial
// number.
func FindPort(serialNumber string) (string, error) {
	ports, err := Ports()
	if err != nil {
		return "", err
	}

	for _, p := range ports {
		if p.SerialNumber == serialNumber {
			return p.Name, nil
		}
	}

	return "", ErrPortNotFound.Fmt(serialNumber)
}

// ImadaOptions configures an Imada gauge.
type ImadaOptions struct {
	// Open replaces the serial port, mainly for tests.
	Open         func(port string, baudRate int) (io.ReadWriteCloser, error)
	Logger       *slog.Logger
	SerialNumber string
	// Port is the serial port name. If empty, the port is looked up by
	// SerialNumber.
	Port     string
	BaudRate int
	// TurnsInFullTurn defaults to 3.
	TurnsInFullTurn float64
}

// Imada is an Imada HTG2-4 digital torque gauge connected over a USB serial
// (RS-232) cable.
type Imada struct {
	port io.ReadWriteCloser
	opts ImadaOptions
	log  *slog.Logger
	mu   sync.Mutex
}

// NewImada returns an unopened gauge.
func NewImada(opts ImadaOptions) *Imada {
	if opts.SerialNumber == "" {
		opts.SerialNumber = ImadaSerialNumber
	}

	if opts.BaudRate == 0 {
		opts.BaudRate = imadaBaudRate
	}

	if opts.TurnsInFullTurn == 0 {
		opts.TurnsInFullTurn = imadaTurnsInFullTurn
	}

	if opts.Open == nil {
		opts.Open = openSerial
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Imada{
		opts: opts,
		log:  opts.Logger.With(slog.String("sensor", opts.SerialNumber)),
	}
}

func openSerial(name string, baudRate int) (io.ReadWriteCloser, error) {
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}

	err = p.SetReadTimeout(imadaReadTimeout)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	return p, nil
}

func (i *Imada) Info() models.SensorInfo {
	return models.SensorInfo{
		SerialNumber:    i.opts.SerialNumber,
		Name:            "Imada HTG2-4",
		TurnsInFullTurn: i.opts.TurnsInFullTurn,
	}
}

func (i *Imada) Open() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.port != nil {
		return nil
	}

	name := i.opts.Port
	if name == "" {
		var err error

		name, err = FindPort(i.opts.SerialNumber)
		if err != nil {
			return err
		}
	}

	port, err := i.opts.Open(name, i.opts.BaudRate)
	if err != nil {
		return err
	}

	i.log.Info("serial port opened", slog.String("port", name))

	i.port = port

	return nil
}

func (i *Imada) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.port == nil {
		return nil
	}

	err := i.port.Close()
	i.port = nil

	return err
}

// Read polls the display value. A telegram that cannot be decoded is
// reported with ErrTelegram and the sensor stays usable.
func (i *Imada) Read(ctx context.Context) (Reading, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.port == nil {
		return Reading{}, ErrNotOpen.Fmt(i.opts.SerialNumber)
	}

	if _, err := io.WriteString(i.port, imadaPoll); err != nil {
		return Reading{}, ErrDisconnected.Fmt(i.opts.SerialNumber).Wrap(err)
	}

	line, err := i.readLine(ctx)
	if err != nil {
		return Reading{}, err
	}

	t, err := DecodeTelegram(line)
	if err != nil {
		i.log.Error("decode telegram failed", slog.Any("error", err))
		return Reading{}, err
	}

	return Reading{
		At:     time.Now(),
		Torque: t.Value,
	}, nil
}

func (i *Imada) readLine(ctx context.Context) (string, error) {
	var (
		line  strings.Builder
		buf   [1]byte
		empty int
	)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := i.port.Read(buf[:])
		if err != nil && !errors.Is(err, io.EOF) {
			return "", ErrDisconnected.Fmt(i.opts.SerialNumber).Wrap(err)
		}

		if n == 0 {
			empty++

			if empty >= imadaMaxEmptyReads {
				return "", ErrDisconnected.Fmt(i.opts.SerialNumber)
			}

			continue
		}

		empty = 0

		if buf[0] == imadaEOL {
			return line.String(), nil
		}

		line.WriteByte(buf[0])
	}
}
