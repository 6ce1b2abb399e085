package workflow

import (
	"context"
	"sync/atomic"
	"time"
)

const defaultQueueSize = 256

type request struct {
	at     time.Time
	reply  chan error
	in     Input
	torque float64
	sample bool
}

// Dispatcher serializes all access to a Machine. Triggers from the
// presentation layer and readings from the sensor share one FIFO queue which
// a single goroutine drains, so every trigger runs to completion before the
// next one is looked at.
type Dispatcher struct {
	m     *Machine
	queue chan request
	done  chan struct{}
	snap  atomic.Pointer[Snapshot]
}

// NewDispatcher wraps m. The machine must not be used directly afterwards.
func NewDispatcher(m *Machine, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	d := &Dispatcher{
		m:     m,
		queue: make(chan request, queueSize),
		done:  make(chan struct{}),
	}

	d.publish(m.Snapshot())

	m.OnTransition(d.publish)

	return d
}

func (d *Dispatcher) publish(s Snapshot) {
	d.snap.Store(&s)
}

// Snapshot returns the most recently published view of the machine. It is
// safe to call from any goroutine.
func (d *Dispatcher) Snapshot() Snapshot {
	return *d.snap.Load()
}

// Run processes queued requests until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-d.queue:
			if req.sample {
				if d.m.Append(req.at, req.torque) {
					d.publish(d.m.Snapshot())
				}

				continue
			}

			req.reply <- d.m.Fire(req.in)
		}
	}
}

// Submit queues a trigger and waits until it has been processed.
func (d *Dispatcher) Submit(ctx context.Context, in Input) error {
	req := request{
		in:    in,
		reply: make(chan error, 1),
	}

	if err := d.enqueue(ctx, req); err != nil {
		return err
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		select {
		case err := <-req.reply:
			return err
		default:
			return errQueueClosed
		}
	}
}

// Append queues a sensor reading taken at the given time. It does not wait
// for the reading to be processed.
func (d *Dispatcher) Append(ctx context.Context, at time.Time, torque float64) error {
	return d.enqueue(ctx, request{
		at:     at,
		torque: torque,
		sample: true,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, req request) error {
	select {
	case <-d.done:
		return errQueueClosed
	default:
	}

	select {
	case d.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return errQueueClosed
	}
}
