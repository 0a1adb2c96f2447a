package dto

import (
	"sort"
	"time"

	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type Booking struct {
	ID                 string    `json:"id"`
	Vertical           string    `json:"vertical"`
	TargetID           string    `json:"target_id"`
	GuestID            string    `json:"guest_id"`
	CheckIn            time.Time `json:"check_in"`
	CheckOut           time.Time `json:"check_out"`
	Guests             int       `json:"guests"`
	Status             string    `json:"status"`
	Reason             string    `json:"reason,omitempty"`
	Total              MoneyDTO  `json:"total"`
	SecurityDeposit    *MoneyDTO `json:"security_deposit,omitempty"`
	CancellationPolicy string    `json:"cancellation_policy"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount.StringFixed(money.Scale),
		Currency: value.Currency,
	}
}

func MapMoneyPtr(value *money.Money) *MoneyDTO {
	if value == nil {
		return nil
	}
	out := MapMoney(*value)
	return &out
}

func MapBooking(b *domainbooking.Booking) Booking {
	return Booking{
		ID:                 string(b.ID),
		Vertical:           string(b.Vertical),
		TargetID:           b.TargetID,
		GuestID:            b.GuestID,
		CheckIn:            b.Range.CheckIn,
		CheckOut:           b.Range.CheckOut,
		Guests:             b.Guests,
		Status:             string(b.Status),
		Reason:             b.Reason,
		Total:              MapMoney(b.Total),
		SecurityDeposit:    MapMoneyPtr(b.SecurityDeposit),
		CancellationPolicy: b.Policy.PolicyID,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// MapBookings returns newest first.
func MapBookings(bookings []*domainbooking.Booking) BookingCollection {
	items := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, MapBooking(b))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return BookingCollection{Items: items}
}
