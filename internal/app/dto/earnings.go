package dto

import (
	domainearnings "buckler/internal/domain/earnings"
	"buckler/internal/domain/shared/daterange"
)

type Earnings struct {
	ProviderID          string   `json:"provider_id"`
	Vertical            string   `json:"vertical"`
	Period              string   `json:"period"`
	From                string   `json:"from"`
	To                  string   `json:"to"`
	TotalEarnings       MoneyDTO `json:"total_earnings"`
	PendingPayouts      MoneyDTO `json:"pending_payouts"`
	CompletedPayouts    MoneyDTO `json:"completed_payouts"`
	BookingsCount       int      `json:"bookings_count"`
	UpcomingCount       int      `json:"upcoming_count"`
	AverageBookingValue MoneyDTO `json:"average_booking_value"`
}

func MapEarnings(providerID, vertical string, r domainearnings.Report) Earnings {
	return Earnings{
		ProviderID:          providerID,
		Vertical:            vertical,
		Period:              string(r.Period),
		From:                daterange.DayKey(r.From),
		To:                  daterange.DayKey(r.To),
		TotalEarnings:       MapMoney(r.TotalEarnings),
		PendingPayouts:      MapMoney(r.PendingPayouts),
		CompletedPayouts:    MapMoney(r.CompletedPayouts),
		BookingsCount:       r.BookingsCount,
		UpcomingCount:       r.UpcomingCount,
		AverageBookingValue: MapMoney(r.AverageBookingValue),
	}
}
