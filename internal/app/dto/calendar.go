package dto

import (
	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/daterange"
)

type CalendarDay struct {
	Date              string    `json:"date"`
	IsAvailable       bool      `json:"is_available"`
	PriceOverride     *MoneyDTO `json:"price_override,omitempty"`
	MinNightsOverride *int      `json:"min_nights_override,omitempty"`
	AvailableSpots    *int      `json:"available_spots,omitempty"`
}

type OccupiedRange struct {
	BookingID string `json:"booking_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Guests    int    `json:"guests"`
	Status    string `json:"status"`
}

type Calendar struct {
	TargetID string          `json:"target_id"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Days     []CalendarDay   `json:"days"`
	Occupied []OccupiedRange `json:"occupied"`
}

func MapCalendarDay(e domainavailability.Entry) CalendarDay {
	return CalendarDay{
		Date:              e.Key(),
		IsAvailable:       e.IsAvailable,
		PriceOverride:     MapMoneyPtr(e.PriceOverride),
		MinNightsOverride: e.MinNightsOverride,
		AvailableSpots:    e.AvailableSpots,
	}
}

func MapOccupied(b *domainbooking.Booking) OccupiedRange {
	return OccupiedRange{
		BookingID: string(b.ID),
		From:      daterange.DayKey(b.Range.CheckIn),
		To:        daterange.DayKey(b.Range.CheckOut),
		Guests:    b.Guests,
		Status:    string(b.Status),
	}
}

type ReconcileResult struct {
	TargetID  string `json:"target_id"`
	Processed int    `json:"processed"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
}
