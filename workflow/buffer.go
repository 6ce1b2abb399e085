package workflow

import (
	"log/slog"

	"github.com/ayoisaiah/cranio/internal/models"
)

// Buffer collects the samples of the measurement in progress. Samples
// appended while the buffer is stopped are discarded.
//
// Buffer is not safe for concurrent use; the Dispatcher is its only writer.
type Buffer struct {
	log     *slog.Logger
	samples []models.Measurement
	started bool
}

// NewBuffer returns a stopped, empty buffer.
func NewBuffer(log *slog.Logger) *Buffer {
	if log == nil {
		log = slog.Default()
	}

	return &Buffer{
		log: log,
	}
}

// Start clears the buffer and begins accepting samples.
func (b *Buffer) Start() {
	b.samples = nil
	b.started = true
}

// Started reports whether the buffer accepts samples.
func (b *Buffer) Started() bool {
	return b.started
}

// Append adds a sample and reports whether it was kept.
func (b *Buffer) Append(elapsed, torque float64) bool {
	if !b.started {
		b.log.Debug(
			"sample discarded: buffer not started",
			slog.Float64("time_s", elapsed),
			slog.Float64("torque_nm", torque),
		)

		return false
	}

	b.samples = append(b.samples, models.Measurement{
		Time:   elapsed,
		Torque: torque,
	})

	return true
}

// Stop ends sample intake and hands over the collected samples. The buffer is
// left empty.
func (b *Buffer) Stop() []models.Measurement {
	samples := b.samples

	b.samples = nil
	b.started = false

	return samples
}

// Clear drops all samples without changing whether the buffer is started.
func (b *Buffer) Clear() {
	b.samples = nil
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Last returns the most recent sample, if any.
func (b *Buffer) Last() (models.Measurement, bool) {
	if len(b.samples) == 0 {
		return models.Measurement{}, false
	}

	return b.samples[len(b.samples)-1], true
}

// Snapshot returns a copy of the buffered samples.
func (b *Buffer) Snapshot() []models.Measurement {
	samples := make([]models.Measurement, len(b.samples))
	copy(samples, b.samples)

	return samples
}
