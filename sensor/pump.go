package sensor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ayoisaiah/cranio/internal/models"
)

// DefaultPollInterval paces sensor reads when none is configured.
const DefaultPollInterval = 20 * time.Millisecond

// Sink receives the readings of a connected sensor.
type Sink interface {
	Append(ctx context.Context, at time.Time, torque float64) error
	// Lost is called once when the sensor stops responding.
	Lost(ctx context.Context, err error)
}

// Pump polls a sensor at a fixed rate in a background goroutine and hands
// the readings to a sink. Polling runs for as long as the sensor is
// connected; whether a reading is kept is up to the sink.
type Pump struct {
	sensor  Sensor
	sink    Sink
	log     *slog.Logger
	cancel  context.CancelFunc
	done    chan struct{}
	limit   rate.Limit
	mu      sync.Mutex
	running bool
}

// NewPump returns a pump for s. An interval of zero uses DefaultPollInterval.
func NewPump(
	s Sensor,
	sink Sink,
	interval time.Duration,
	log *slog.Logger,
) *Pump {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if log == nil {
		log = slog.Default()
	}

	return &Pump{
		sensor: s,
		sink:   sink,
		log:    log.With(slog.String("sensor", s.Info().SerialNumber)),
		limit:  rate.Every(interval),
	}
}

// Info describes the pumped sensor.
func (p *Pump) Info() models.SensorInfo {
	return p.sensor.Info()
}

// Connected reports whether the pump is polling.
func (p *Pump) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.running
}

// Connect opens the sensor and starts polling it. Polling stops when ctx is
// cancelled, when Disconnect is called, or when the sensor is lost.
func (p *Pump) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	if err := p.sensor.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)

	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.run(ctx, p.done)

	p.log.Info("sensor connected")

	return nil
}

// Disconnect stops polling and closes the sensor.
func (p *Pump) Disconnect() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (p *Pump) run(ctx context.Context, done chan struct{}) {
	limiter := rate.NewLimiter(p.limit, 1)

	defer func() {
		if err := p.sensor.Close(); err != nil {
			p.log.Warn("closing sensor", slog.Any("error", err))
		}

		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()

		close(done)

		p.log.Info("sensor disconnected")
	}()

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		r, err := p.sensor.Read(ctx)

		switch {
		case err == nil:
		case errors.Is(err, ErrDisconnected):
			p.sink.Lost(ctx, err)
			return
		case ctx.Err() != nil:
			return
		default:
			// a garbled telegram only costs one reading
			continue
		}

		if err := p.sink.Append(ctx, r.At, r.Torque); err != nil {
			if ctx.Err() == nil {
				p.log.Warn("sink rejected reading", slog.Any("error", err))
			}

			return
		}
	}
}
