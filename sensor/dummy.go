package sensor

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ayoisaiah/cranio/internal/models"
)

// DummySerialNumber identifies the dummy sensor in stored documents.
const DummySerialNumber = "DUMMY53N50RFTW"

// Dummy produces normally distributed torque values. It is used for
// demonstrations and tests when no gauge is attached.
type Dummy struct {
	rng *rand.Rand
	now func() time.Time
	mu  sync.Mutex
	// failAfter makes Read return ErrDisconnected after that many readings.
	failAfter int
	reads     int
	open      bool
}

// DummyOption configures a Dummy sensor.
type DummyOption func(*Dummy)

// WithSeed makes the generated values reproducible.
func WithSeed(seed uint64) DummyOption {
	return func(d *Dummy) {
		d.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithFailAfter simulates a cable being pulled after n readings.
func WithFailAfter(n int) DummyOption {
	return func(d *Dummy) {
		d.failAfter = n
	}
}

// WithNow sets the clock used to timestamp readings.
func WithNow(now func() time.Time) DummyOption {
	return func(d *Dummy) {
		d.now = now
	}
}

func NewDummy(opts ...DummyOption) *Dummy {
	d := &Dummy{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Dummy) Info() models.SensorInfo {
	return models.SensorInfo{
		SerialNumber:    DummySerialNumber,
		Name:            "Dummy",
		TurnsInFullTurn: 3,
	}
}

func (d *Dummy) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.open = true
	d.reads = 0

	return nil
}

func (d *Dummy) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.open = false

	return nil
}

func (d *Dummy) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return Reading{}, ErrNotOpen.Fmt(DummySerialNumber)
	}

	if d.failAfter > 0 && d.reads >= d.failAfter {
		return Reading{}, ErrDisconnected.Fmt(DummySerialNumber)
	}

	d.reads++

	return Reading{
		At:     d.now(),
		Torque: d.rng.NormFloat64(),
	}, nil
}
