package workflow

import (
	"cmp"
	"slices"

	"github.com/ayoisaiah/cranio/internal/models"
)

// Span is a closed time interval in seconds since the start of a document.
type Span struct {
	Begin float64
	End   float64
}

// SpanOf returns the interval covered by samples, which must be ordered by
// time.
func SpanOf(samples []models.Measurement) Span {
	if len(samples) == 0 {
		return Span{}
	}

	return Span{
		Begin: samples[0].Time,
		End:   samples[len(samples)-1].Time,
	}
}

type eventEntry struct {
	models.AnnotatedEvent
	// seq records insertion order and breaks ties between equal begins.
	seq uint64
}

// EventStore holds the annotated events of the active document. It is only
// mutable while unsealed, which the machine guarantees to be exactly the
// EventDetection step. Calling a mutating method on a sealed store panics.
//
// EventStore is not safe for concurrent use.
type EventStore struct {
	documentID string
	events     []eventEntry
	seq        uint64
	sealed     bool
}

// NewEventStore returns an empty, unsealed store for a document.
func NewEventStore(documentID string) *EventStore {
	return &EventStore{
		documentID: documentID,
	}
}

// Seal forbids further mutation.
func (s *EventStore) Seal() {
	s.sealed = true
}

// Unseal allows mutation again.
func (s *EventStore) Unseal() {
	s.sealed = false
}

// Sealed reports whether the store rejects mutation.
func (s *EventStore) Sealed() bool {
	return s.sealed
}

func (s *EventStore) mustBeOpen(op string) {
	if s.sealed {
		panic("workflow: " + op + " on a sealed event store")
	}
}

// Len returns the number of events.
func (s *EventStore) Len() int {
	return len(s.events)
}

// AddPlaceholders appends count placeholder events that split span into
// equal, non-overlapping intervals. A span of zero width is replaced by unit
// intervals starting at span.Begin.
func (s *EventStore) AddPlaceholders(count int, span Span) {
	s.mustBeOpen("add")

	if count <= 0 {
		return
	}

	width := (span.End - span.Begin) / float64(count)
	if width <= 0 {
		width = 1
	}

	for i := range count {
		s.seq++

		s.events = append(s.events, eventEntry{
			AnnotatedEvent: models.AnnotatedEvent{
				DocumentID: s.documentID,
				EventType:  models.DistractionEvent,
				Begin:      span.Begin + float64(i)*width,
				End:        span.Begin + float64(i+1)*width,
				Recorded:   true,
			},
			seq: s.seq,
		})
	}

	s.Renumber()
}

// Has reports whether an event with the given index exists.
func (s *EventStore) Has(index int) bool {
	return index >= 0 && index < len(s.events)
}

// Remove deletes the event with the given index and renumbers the rest.
func (s *EventStore) Remove(index int) error {
	s.mustBeOpen("remove")

	if !s.Has(index) {
		return ErrNoSuchEvent.Fmt(index)
	}

	s.events = slices.Delete(s.events, index, index+1)

	s.Renumber()

	return nil
}

// UpdateBoundaries moves the event with the given index. Since its temporal
// position may change, the events are renumbered.
func (s *EventStore) UpdateBoundaries(index int, begin, end float64) error {
	s.mustBeOpen("update")

	if !s.Has(index) {
		return ErrNoSuchEvent.Fmt(index)
	}

	if begin > end {
		return ErrInvalidBoundaries.Fmt(begin, end)
	}

	s.events[index].Begin = begin
	s.events[index].End = end

	s.Renumber()

	return nil
}

// SetFlags sets the annotation-done and recorded flags of an event.
func (s *EventStore) SetFlags(index int, annotationDone, recorded bool) error {
	s.mustBeOpen("flag")

	if !s.Has(index) {
		return ErrNoSuchEvent.Fmt(index)
	}

	s.events[index].AnnotationDone = annotationDone
	s.events[index].Recorded = recorded

	return nil
}

// Renumber orders the events by begin, ties broken by insertion order, and
// assigns indices from zero. Renumbering an ordered store changes nothing.
func (s *EventStore) Renumber() {
	slices.SortStableFunc(s.events, func(a, b eventEntry) int {
		if c := cmp.Compare(a.Begin, b.Begin); c != 0 {
			return c
		}

		return cmp.Compare(a.seq, b.seq)
	})

	for i := range s.events {
		s.events[i].Index = i
	}
}

// All returns a copy of the events ordered by index.
func (s *EventStore) All() []models.AnnotatedEvent {
	events := make([]models.AnnotatedEvent, len(s.events))

	for i := range s.events {
		events[i] = s.events[i].AnnotatedEvent
	}

	return events
}
