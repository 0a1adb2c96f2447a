package earnings

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buckler/internal/domain/booking"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
)

var now = time.Date(2025, 7, 20, 15, 0, 0, 0, time.UTC)

func rentalRates() Rates {
	return Rates{PlatformFeeRate: decimal.RequireFromString("0.15"), PayoutDelayDays: 7}
}

func kes(v string) money.Money { return money.MustParse(v, "KES") }

func bkg(status booking.Status, total string, created time.Time, checkoutDaysAgo int) *booking.Booking {
	out := daterange.Truncate(now).AddDate(0, 0, -checkoutDaysAgo)
	return &booking.Booking{
		Status:    status,
		Total:     kes(total),
		CreatedAt: created,
		Range:     daterange.DateRange{CheckIn: out.AddDate(0, 0, -2), CheckOut: out},
	}
}

func TestWindows(t *testing.T) {
	cases := map[Period][2]string{
		PeriodDay:   {"2025-07-20", "2025-07-20"},
		PeriodWeek:  {"2025-07-13", "2025-07-20"},
		PeriodMonth: {"2025-07-01", "2025-07-20"},
		PeriodYear:  {"2025-01-01", "2025-07-20"},
	}
	for p, want := range cases {
		from, to, err := p.Window(now)
		require.NoError(t, err)
		assert.Equal(t, want[0], daterange.DayKey(from), p)
		assert.Equal(t, want[1], daterange.DayKey(to), p)
	}
	_, _, err := Period("decade").Window(now)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("WEEK")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, p)
	_, err = ParsePeriod("fortnight")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestCompletedPastDelayIsPaidOut(t *testing.T) {
	agg := Aggregator{Rates: rentalRates(), Currency: "KES"}
	report, err := agg.Aggregate([]*booking.Booking{
		bkg(booking.StatusCompleted, "10000", now.AddDate(0, 0, -15), 10),
	}, PeriodMonth, now)
	require.NoError(t, err)

	assert.True(t, report.TotalEarnings.Equal(kes("8500")), report.TotalEarnings.String())
	assert.True(t, report.CompletedPayouts.Equal(kes("8500")))
	assert.True(t, report.PendingPayouts.IsZero())
	assert.Equal(t, 1, report.BookingsCount)
	assert.True(t, report.AverageBookingValue.Equal(kes("8500")))
}

func TestPayoutDelayBoundary(t *testing.T) {
	agg := Aggregator{Rates: rentalRates(), Currency: "KES"}
	report, err := agg.Aggregate([]*booking.Booking{
		bkg(booking.StatusCompleted, "1000", now.AddDate(0, 0, -10), 7),
		bkg(booking.StatusCompleted, "1000", now.AddDate(0, 0, -10), 8),
	}, PeriodMonth, now)
	require.NoError(t, err)
	assert.True(t, report.PendingPayouts.Equal(kes("850")))
	assert.True(t, report.CompletedPayouts.Equal(kes("850")))
}

func TestPartitionAndExclusions(t *testing.T) {
	agg := Aggregator{Rates: Rates{PlatformFeeRate: decimal.RequireFromString("0.12"), PayoutDelayDays: 5}, Currency: "KES"}
	bookings := []*booking.Booking{
		bkg(booking.StatusCompleted, "3333.33", now.AddDate(0, 0, -12), 9),
		bkg(booking.StatusCompleted, "5000", now.AddDate(0, 0, -3), 1),
		bkg(booking.StatusConfirmed, "2000", now.AddDate(0, 0, -1), -5),
		bkg(booking.StatusPending, "9999", now.AddDate(0, 0, -1), -5),
		bkg(booking.StatusCancelled, "9999", now.AddDate(0, 0, -1), -5),
		bkg(booking.StatusRejected, "9999", now.AddDate(0, 0, -1), -5),
		bkg(booking.StatusCompleted, "9999", now.AddDate(0, -2, 0), 40),
	}
	report, err := agg.Aggregate(bookings, PeriodMonth, now)
	require.NoError(t, err)

	assert.Equal(t, 2, report.BookingsCount)
	assert.Equal(t, 1, report.UpcomingCount)
	// 3333.33*0.88 = 2933.3304 -> 2933.33; 5000*0.88 = 4400; 2000*0.88 = 1760
	assert.True(t, report.TotalEarnings.Equal(kes("7333.33")), report.TotalEarnings.String())
	assert.True(t, report.CompletedPayouts.Equal(kes("2933.33")))
	assert.True(t, report.PendingPayouts.Equal(kes("6160")), report.PendingPayouts.String())
	assert.True(t, report.AverageBookingValue.Equal(kes("3666.67")), report.AverageBookingValue.String())

	completedPart, err := report.CompletedPayouts.Add(report.PendingPayouts)
	require.NoError(t, err)
	upcoming := agg.Rates.Cut(kes("2000"))
	expected, err := report.TotalEarnings.Add(upcoming)
	require.NoError(t, err)
	assert.True(t, completedPart.Equal(expected))
}

func TestEmptyReportHasZeroAverage(t *testing.T) {
	report, err := Aggregator{Rates: rentalRates(), Currency: "kes"}.Aggregate(nil, PeriodDay, now)
	require.NoError(t, err)
	assert.Equal(t, "KES", report.TotalEarnings.Currency)
	assert.True(t, report.AverageBookingValue.IsZero())
	assert.Zero(t, report.BookingsCount)
}

func TestMixedCurrencies(t *testing.T) {
	usd := bkg(booking.StatusCompleted, "10", now, 1)
	usd.Total = money.MustParse("10", "USD")
	_, err := Aggregator{Rates: rentalRates(), Currency: "KES"}.Aggregate([]*booking.Booking{usd}, PeriodDay, now)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestRatesValidate(t *testing.T) {
	assert.NoError(t, rentalRates().Validate())
	assert.ErrorIs(t, Rates{PlatformFeeRate: decimal.NewFromInt(1)}.Validate(), ErrInvalidRates)
	assert.ErrorIs(t, Rates{PlatformFeeRate: decimal.Zero, PayoutDelayDays: -1}.Validate(), ErrInvalidRates)
}
