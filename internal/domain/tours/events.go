package tours

import (
	"time"

	"buckler/internal/domain/shared/money"
)

type TourPublishedEvent struct {
	TourID              TourID
	OperatorID          OperatorID
	PricePerParticipant money.Money
	MaxParticipants     int
	At                  time.Time
}

func (e TourPublishedEvent) EventName() string     { return "tour.published" }
func (e TourPublishedEvent) AggregateID() string   { return string(e.TourID) }
func (e TourPublishedEvent) OccurredAt() time.Time { return e.At }

// TourTermsChangedEvent applies to departures booked after At.
type TourTermsChangedEvent struct {
	TourID              TourID
	PricePerParticipant money.Money
	MaxParticipants     int
	DurationDays        int
	InstantBook         bool
	At                  time.Time
}

func (e TourTermsChangedEvent) EventName() string     { return "tour.terms_changed" }
func (e TourTermsChangedEvent) AggregateID() string   { return string(e.TourID) }
func (e TourTermsChangedEvent) OccurredAt() time.Time { return e.At }
