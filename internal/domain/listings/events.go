package listings

import (
	"time"

	"buckler/internal/domain/shared/money"
)

// ListingPublishedEvent announces a new rental listing and its opening terms.
type ListingPublishedEvent struct {
	ListingID   ListingID
	HostID      HostID
	NightlyRate money.Money
	InstantBook bool
	At          time.Time
}

func (e ListingPublishedEvent) EventName() string     { return "listing.published" }
func (e ListingPublishedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingPublishedEvent) OccurredAt() time.Time { return e.At }

// ListingTermsChangedEvent carries the terms that apply to bookings
// requested after At.
type ListingTermsChangedEvent struct {
	ListingID   ListingID
	NightlyRate money.Money
	MinNights   int
	MaxNights   int
	GuestsLimit int
	InstantBook bool
	At          time.Time
}

func (e ListingTermsChangedEvent) EventName() string     { return "listing.terms_changed" }
func (e ListingTermsChangedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingTermsChangedEvent) OccurredAt() time.Time { return e.At }
