// Package pricing turns a rate card into a booking total. All arithmetic is
// exact; the total is rounded once, at the end.
package pricing

import (
	"buckler/internal/domain/listings"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/money"
	"buckler/internal/domain/tours"
)

const (
	FeeCleaning = "cleaning_fee"
	FeeService  = "service_fee"
)

type Fee struct {
	Name   string
	Amount money.Money
}

// Breakdown explains a total. SecurityDeposit is held separately and never
// part of Total.
type Breakdown struct {
	Nights          int
	Participants    int
	Unit            money.Money
	Base            money.Money
	Fees            []Fee
	SecurityDeposit *money.Money
	Total           money.Money
}

// NightlyOverrides maps a day key (YYYY-MM-DD) to the price of that night.
type NightlyOverrides map[string]money.Money

// Calculator is stateless and safe for concurrent use.
type Calculator struct{}

// Stay prices a rental: every night at the listing rate or its override, plus
// the fixed cleaning and service fees.
func (Calculator) Stay(l *listings.Listing, dr daterange.DateRange, overrides NightlyOverrides) (Breakdown, error) {
	if err := dr.Validate(); err != nil {
		return Breakdown{}, err
	}
	base := money.Zero(l.NightlyRate.Currency)
	for _, night := range dr.Days() {
		rate := l.NightlyRate
		if override, ok := overrides[daterange.DayKey(night)]; ok {
			rate = override
		}
		next, err := base.Add(rate)
		if err != nil {
			return Breakdown{}, err
		}
		base = next
	}
	out := Breakdown{
		Nights: dr.Nights(),
		Unit:   l.NightlyRate,
		Base:   base,
	}
	if l.CleaningFee != nil {
		out.Fees = append(out.Fees, Fee{Name: FeeCleaning, Amount: *l.CleaningFee})
	}
	if l.ServiceFee != nil {
		out.Fees = append(out.Fees, Fee{Name: FeeService, Amount: *l.ServiceFee})
	}
	if l.SecurityDeposit != nil {
		deposit := *l.SecurityDeposit
		out.SecurityDeposit = &deposit
	}
	total, err := out.sum()
	if err != nil {
		return Breakdown{}, err
	}
	out.Total = total
	return out, nil
}

// Tour prices a departure: price per participant times participants.
func (Calculator) Tour(t *tours.Tour, participants int) (Breakdown, error) {
	if err := t.CheckParticipants(participants); err != nil {
		return Breakdown{}, err
	}
	base := t.PricePerParticipant.Mul(int64(participants))
	return Breakdown{
		Participants: participants,
		Unit:         t.PricePerParticipant,
		Base:         base,
		Total:        base.Round(),
	}, nil
}

func (b Breakdown) sum() (money.Money, error) {
	total := b.Base
	for _, fee := range b.Fees {
		next, err := total.Add(fee.Amount)
		if err != nil {
			return money.Money{}, err
		}
		total = next
	}
	return total.Round(), nil
}
