package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buckler/internal/domain/listings"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
	"buckler/internal/domain/tours"
)

func kes(v string) money.Money { return money.MustParse(v, "KES") }

func ptr(m money.Money) *money.Money { return &m }

func stay(t *testing.T, in string, nights int) daterange.DateRange {
	t.Helper()
	start, err := daterange.ParseDay(in)
	require.NoError(t, err)
	dr, err := daterange.New(start, start.AddDate(0, 0, nights))
	require.NoError(t, err)
	return dr
}

func TestStayNightlyOnly(t *testing.T) {
	l := &listings.Listing{NightlyRate: kes("5000")}
	got, err := Calculator{}.Stay(l, stay(t, "2025-07-10", 3), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Nights)
	assert.True(t, got.Total.Equal(kes("15000")), got.Total.String())
}

func TestStayAddsFeesButNotDeposit(t *testing.T) {
	l := &listings.Listing{
		NightlyRate:     kes("4999.99"),
		CleaningFee:     ptr(kes("1500")),
		ServiceFee:      ptr(kes("250.50")),
		SecurityDeposit: ptr(kes("10000")),
	}
	got, err := Calculator{}.Stay(l, stay(t, "2025-07-10", 2), nil)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(kes("11750.48")), got.Total.String())
	require.NotNil(t, got.SecurityDeposit)
	assert.True(t, got.SecurityDeposit.Equal(kes("10000")))
	assert.Len(t, got.Fees, 2)
}

func TestStayAppliesNightlyOverrides(t *testing.T) {
	l := &listings.Listing{NightlyRate: kes("5000")}
	overrides := NightlyOverrides{"2025-07-11": kes("8000")}
	got, err := Calculator{}.Stay(l, stay(t, "2025-07-10", 3), overrides)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(kes("18000")), got.Total.String())
}

func TestStayRejectsEmptyRange(t *testing.T) {
	l := &listings.Listing{NightlyRate: kes("5000")}
	day := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	_, err := Calculator{}.Stay(l, daterange.DateRange{CheckIn: day, CheckOut: day}, nil)
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestStayCurrencyMismatch(t *testing.T) {
	l := &listings.Listing{NightlyRate: kes("5000"), CleaningFee: ptr(money.MustParse("20", "USD"))}
	_, err := Calculator{}.Stay(l, stay(t, "2025-07-10", 1), nil)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestStayIsDeterministicAndMonotonic(t *testing.T) {
	l := &listings.Listing{NightlyRate: kes("3333.33"), CleaningFee: ptr(kes("999.99"))}
	prev := kes("0")
	for nights := 1; nights <= 30; nights++ {
		a, err := Calculator{}.Stay(l, stay(t, "2025-01-01", nights), nil)
		require.NoError(t, err)
		b, err := Calculator{}.Stay(l, stay(t, "2025-01-01", nights), nil)
		require.NoError(t, err)
		assert.Equal(t, a.Total.String(), b.Total.String())
		cmp, err := a.Total.Cmp(prev)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cmp, 0)
		prev = a.Total
	}
}

func TestTour(t *testing.T) {
	tour := &tours.Tour{MaxParticipants: 6, PricePerParticipant: kes("12500.25"), DurationDays: 2}
	got, err := Calculator{}.Tour(tour, 4)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(kes("50001")), got.Total.String())
	assert.Equal(t, 4, got.Participants)

	_, err = Calculator{}.Tour(tour, 0)
	assert.ErrorIs(t, err, tours.ErrInvalidParticipant)
	_, err = Calculator{}.Tour(tour, 7)
	assert.ErrorIs(t, err, errs.ErrValidation)
}
