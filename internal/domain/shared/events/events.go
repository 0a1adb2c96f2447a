// Package events holds the minimal contract aggregates use to publish what
// happened to them.
package events

import (
	"slices"
	"time"
)

// DomainEvent is a fact recorded by an aggregate. EventName is dotted, the
// first segment naming the aggregate ("booking.approved").
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates to collect events until the unit of
// work hands them to the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

// PendingEvents returns a copy of what has been recorded so far.
func (r *EventRecorder) PendingEvents() []DomainEvent { return slices.Clone(r.pending) }

func (r *EventRecorder) ClearEvents() { r.pending = nil }

// Pull returns the pending events and clears them.
func (r *EventRecorder) Pull() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
