// Package earnings folds a provider's bookings into period totals and payout
// buckets. It only reads bookings.
package earnings

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"buckler/internal/domain/booking"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
)

var (
	ErrUnknownPeriod = errs.New(errs.ErrValidation, "earnings: unknown period")
	ErrInvalidRates  = errs.New(errs.ErrValidation, "earnings: fee rate must be in [0,1) and payout delay non-negative")
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(v string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(v))); p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	case "":
		return PeriodMonth, nil
	}
	return "", errs.Wrapf(ErrUnknownPeriod, "%q", v)
}

// Window returns the inclusive day bounds of the period ending today.
func (p Period) Window(now time.Time) (from, to time.Time, err error) {
	today := daterange.Truncate(now)
	switch p {
	case PeriodDay:
		return today, today, nil
	case PeriodWeek:
		return today.AddDate(0, 0, -7), today, nil
	case PeriodMonth:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), today, nil
	case PeriodYear:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), today, nil
	}
	return time.Time{}, time.Time{}, errs.Wrapf(ErrUnknownPeriod, "%q", p)
}

// Rates are the per-vertical platform terms.
type Rates struct {
	PlatformFeeRate decimal.Decimal
	PayoutDelayDays int
}

func (r Rates) Validate() error {
	if r.PlatformFeeRate.IsNegative() || r.PlatformFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) || r.PayoutDelayDays < 0 {
		return ErrInvalidRates
	}
	return nil
}

// Cut is the provider's share of total, rounded.
func (r Rates) Cut(total money.Money) money.Money {
	return total.MulRate(decimal.NewFromInt(1).Sub(r.PlatformFeeRate)).Round()
}

type Report struct {
	Period              Period
	From                time.Time
	To                  time.Time
	TotalEarnings       money.Money
	PendingPayouts      money.Money
	CompletedPayouts    money.Money
	BookingsCount       int
	UpcomingCount       int
	AverageBookingValue money.Money
}

// Aggregator computes reports in a single currency.
type Aggregator struct {
	Rates    Rates
	Currency string
}

// Aggregate considers bookings created inside the period window. Completed
// bookings count toward TotalEarnings and land in CompletedPayouts once more
// than PayoutDelayDays have passed since they ended; confirmed bookings only
// add to PendingPayouts.
func (a Aggregator) Aggregate(bookings []*booking.Booking, period Period, now time.Time) (Report, error) {
	from, to, err := period.Window(now)
	if err != nil {
		return Report{}, err
	}
	if err := a.Rates.Validate(); err != nil {
		return Report{}, err
	}
	currency := a.currency(bookings)
	report := Report{
		Period:              period,
		From:                from,
		To:                  to,
		TotalEarnings:       money.Zero(currency),
		PendingPayouts:      money.Zero(currency),
		CompletedPayouts:    money.Zero(currency),
		AverageBookingValue: money.Zero(currency),
	}
	today := daterange.Truncate(now)
	for _, b := range bookings {
		created := daterange.Truncate(b.CreatedAt)
		if created.Before(from) || created.After(to) {
			continue
		}
		switch b.Status {
		case booking.StatusCompleted:
			cut := a.Rates.Cut(b.Total)
			if report.TotalEarnings, err = report.TotalEarnings.Add(cut); err != nil {
				return Report{}, err
			}
			if daterange.DaysBetween(b.EndDate(), today) > a.Rates.PayoutDelayDays {
				report.CompletedPayouts, err = report.CompletedPayouts.Add(cut)
			} else {
				report.PendingPayouts, err = report.PendingPayouts.Add(cut)
			}
			if err != nil {
				return Report{}, err
			}
			report.BookingsCount++
		case booking.StatusConfirmed:
			if report.PendingPayouts, err = report.PendingPayouts.Add(a.Rates.Cut(b.Total)); err != nil {
				return Report{}, err
			}
			report.UpcomingCount++
		}
	}
	if report.BookingsCount > 0 {
		report.AverageBookingValue = report.TotalEarnings.DivInt(int64(report.BookingsCount))
	}
	return report, nil
}

func (a Aggregator) currency(bookings []*booking.Booking) string {
	if a.Currency != "" {
		return strings.ToUpper(a.Currency)
	}
	for _, b := range bookings {
		if b.Total.Currency != "" {
			return b.Total.Currency
		}
	}
	return ""
}
