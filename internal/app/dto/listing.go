package dto

import (
	"time"

	domainlistings "buckler/internal/domain/listings"
	domaintours "buckler/internal/domain/tours"
)

type Listing struct {
	ID                 string    `json:"id"`
	HostID             string    `json:"host_id"`
	Title              string    `json:"title"`
	GuestsLimit        int       `json:"guests_limit"`
	MinNights          int       `json:"min_nights"`
	MaxNights          int       `json:"max_nights"`
	NightlyRate        MoneyDTO  `json:"nightly_rate"`
	CleaningFee        *MoneyDTO `json:"cleaning_fee,omitempty"`
	ServiceFee         *MoneyDTO `json:"service_fee,omitempty"`
	SecurityDeposit    *MoneyDTO `json:"security_deposit,omitempty"`
	CancellationPolicy string    `json:"cancellation_policy"`
	InstantBook        bool      `json:"instant_book"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Tour struct {
	ID                  string    `json:"id"`
	OperatorID          string    `json:"operator_id"`
	Title               string    `json:"title"`
	MaxParticipants     int       `json:"max_participants"`
	PricePerParticipant MoneyDTO  `json:"price_per_participant"`
	DurationDays        int       `json:"duration_days"`
	CancellationPolicy  string    `json:"cancellation_policy"`
	InstantBook         bool      `json:"instant_book"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func MapListing(l *domainlistings.Listing) Listing {
	return Listing{
		ID:                 string(l.ID),
		HostID:             string(l.Host),
		Title:              l.Title,
		GuestsLimit:        l.GuestsLimit,
		MinNights:          l.MinNights,
		MaxNights:          l.MaxNights,
		NightlyRate:        MapMoney(l.NightlyRate),
		CleaningFee:        MapMoneyPtr(l.CleaningFee),
		ServiceFee:         MapMoneyPtr(l.ServiceFee),
		SecurityDeposit:    MapMoneyPtr(l.SecurityDeposit),
		CancellationPolicy: l.CancellationPolicy,
		InstantBook:        l.InstantBook,
		UpdatedAt:          l.UpdatedAt,
	}
}

func MapTour(t *domaintours.Tour) Tour {
	return Tour{
		ID:                  string(t.ID),
		OperatorID:          string(t.Operator),
		Title:               t.Title,
		MaxParticipants:     t.MaxParticipants,
		PricePerParticipant: MapMoney(t.PricePerParticipant),
		DurationDays:        t.DurationDays,
		CancellationPolicy:  t.CancellationPolicy,
		InstantBook:         t.InstantBook,
		UpdatedAt:           t.UpdatedAt,
	}
}
